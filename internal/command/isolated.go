package command

import (
	"fmt"

	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
)

// DispatchIsolated executes req's command against player instead of state's
// main player session. Any thread dispatching a control-surface request
// that needs to play something obtains its own Player Session first (see
// /requirements/runonce) so a one-off run never interleaves slave-pipe
// commands with the automation loop's own session.
//
// SET_MAINSHOW has no media of its own to play, so it still runs against
// the shared state directly — isolation only matters for commands that
// spawn a child process.
func DispatchIsolated(cmd requirement.Command, req requirement.Requirement, player *playersession.Session, state *sharedstate.State) error {
	switch cmd {
	case requirement.NoOp:
		return nil
	case requirement.PlayFiles:
		return playFilesOn(player, state.Catalog, req)
	case requirement.LegalID:
		return legalIDOn(player, state)
	case requirement.SetMainshow:
		return handleSetMainshow(state)(0, req)
	default:
		return fmt.Errorf("command: no isolated handler for %s", cmd)
	}
}
