package control

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/command"
	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/playlistview"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
	"github.com/gin-gonic/gin"
)

// --- override -------------------------------------------------------------

func (s *Server) handleOverrideEnable(c *gin.Context) {
	s.state.SetOverride(true)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "override": true})
}

// handleOverrideDisable clears the flag and, per spec §6, restores the main
// player to unpaused, speed 1.0.
func (s *Server) handleOverrideDisable(c *gin.Context) {
	s.state.SetOverride(false)
	if err := s.state.MainPlayer.Unpause(); err != nil {
		errorResponse(c, err)
		return
	}
	if err := s.state.MainPlayer.SetSpeed(1.0); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "override": false})
}

// --- requirements -----------------------------------------------------------

func (s *Server) handleRequirementsFetch(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "schedule": s.state.Engine.CopyTo()})
}

func (s *Server) handleRequirementsUpdate(c *gin.Context) {
	var sched requirement.Schedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}
	s.state.Engine.CopyFrom(sched)
	if err := s.state.Engine.Save(s.state.Catalog); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// runonceRequest names a single requirement to execute immediately, outside
// the stored schedule.
type runonceRequest struct {
	Requirement requirement.Requirement `json:"requirement"`
}

// handleRequirementsRunonce dispatches a single requirement immediately,
// bypassing the live engine's clock and stored schedule entirely — per
// spec §6, "does not mutate stored schedule or clock". It plays through a
// Player Session built fresh for this one call rather than the main
// session the automation loop drives, so a one-off run from an HTTP worker
// never interleaves slave-pipe commands with the live broadcast.
func (s *Server) handleRequirementsRunonce(c *gin.Context) {
	var req runonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}
	if !s.registry.HasHandler(req.Requirement.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "unknown requirement type"})
		return
	}
	isolated := playersession.New(s.state.PlayerConfig)
	if err := command.DispatchIsolated(req.Requirement.Type, req.Requirement, isolated, s.state); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- playlist ---------------------------------------------------------------

func (s *Server) handlePlaylistFetch(c *gin.Context) {
	switch {
	case c.Query("mainshow") != "":
		s.respondView(c, s.state.MainshowView())
		return
	case c.Query("override") != "":
		s.respondView(c, s.state.OverrideView())
		return
	case c.Query("bumperlist") != "":
		s.respondView(c, s.state.BumperView())
		return
	case c.Query("fetchall") != "":
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))
		pl, err := s.state.Catalog.FetchSuperlist(limit, offset)
		if err != nil {
			errorResponse(c, err)
			return
		}
		s.respondPlaylist(c, pl)
		return
	case c.Query("new") != "":
		name := c.Query("new")
		weight, _ := strconv.Atoi(c.Query("weight"))
		id, err := s.state.Catalog.CreatePlaylist(name, weight)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id, "name": name})
		return
	}

	var pl *catalog.Playlist
	var err error
	if idStr := c.Query("id"); idStr != "" {
		id, perr := strconv.ParseInt(idStr, 10, 64)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
			return
		}
		pl, err = s.state.Catalog.FetchPlaylistByID(id)
	} else {
		pl, err = s.state.Catalog.FetchPlaylistByName(c.Query("name"))
	}
	if err != nil {
		errorResponse(c, err)
		return
	}

	if filter := c.Query("filter"); filter != "" {
		fetch := func(id int64) (*catalog.PlayableItem, error) { return s.state.Catalog.FetchItemByID(id) }
		view, ferr := playlistview.New(pl.Name, pl.ItemIDs, fetch, true).Filter(filter)
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": ferr.Error()})
			return
		}
		pl = &catalog.Playlist{Name: pl.Name, ItemIDs: view.ItemIDs()}
	}

	if c.Query("truncate") != "" {
		n, terr := strconv.Atoi(c.Query("truncate"))
		if terr == nil && n >= 0 && n < len(pl.ItemIDs) {
			pl.ItemIDs = pl.ItemIDs[:n]
		}
	}

	s.respondPlaylist(c, pl)
}

// respondPlaylist serializes a *catalog.Playlist, honoring noitems.
func (s *Server) respondPlaylist(c *gin.Context, pl *catalog.Playlist) {
	body := gin.H{"status": "ok", "name": pl.Name, "id": pl.ID, "weight": pl.Weight}
	if c.Query("noitems") == "" {
		body["item_ids"] = pl.ItemIDs
	}
	c.JSON(http.StatusOK, body)
}

// respondView serializes a playlistview.View: its name, its live item ids
// and its size. Unlike respondPlaylist there is no id or weight, since the
// three ephemeral views are never persisted (never_save) and have no
// catalog id, and noitems is not honored.
func (s *Server) respondView(c *gin.Context, v *playlistview.View) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"name":     v.Name(),
		"item_ids": v.ItemIDs(),
		"size":     v.Size(),
	})
}

func (s *Server) handlePlaylistAll(c *gin.Context) {
	list, err := s.state.Catalog.ListPlaylists()
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "playlists": list})
}

type playlistUpdateRequest struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ItemIDs   []int64 `json:"item_ids"`
	Overwrite bool    `json:"overwrite"`
}

func (s *Server) handlePlaylistUpdate(c *gin.Context) {
	var req playlistUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}

	id := req.ID
	if id == 0 && req.Name != "" {
		pl, err := s.state.Catalog.FetchPlaylistByName(req.Name)
		if err != nil {
			errorResponse(c, err)
			return
		}
		id = pl.ID
	}

	var err error
	if req.Overwrite {
		err = s.state.Catalog.ReplacePlaylistItems(id, req.ItemIDs)
	} else {
		err = s.state.Catalog.AppendPlaylistItems(id, req.ItemIDs)
	}
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- player -------------------------------------------------------------

// handlePlayerPause toggles pause but, per spec §6, only takes effect while
// override mode is active — otherwise the automation loop's own playback
// would fight the operator's toggle.
func (s *Server) handlePlayerPause(c *gin.Context) {
	if !s.state.OverrideEnabled() {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "pause only honored in override mode"})
		return
	}

	var current playersession.PlayerState
	s.state.MainPlayer.MergeState(&current)

	var err error
	nowPaused := !current.Paused
	if nowPaused {
		err = s.state.MainPlayer.Pause()
	} else {
		err = s.state.MainPlayer.Unpause()
	}
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "paused": nowPaused})
}

func (s *Server) handlePlayerStop(c *gin.Context) {
	if err := s.state.MainPlayer.Stop(); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePlayerState(c *gin.Context) {
	var merged playersession.PlayerState
	s.state.MainPlayer.MergeState(&merged)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "player": gin.H{
		"now_playing": merged.NowPlaying,
		"paused":      merged.Paused,
		"time_pos":    merged.TimePos,
		"length":      merged.Length,
		"metadata":    merged.Metadata,
		"state":       s.state.MainPlayer.CurrentState().String(),
	}})
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

func (s *Server) handlePlayerSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Speed <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}
	if err := s.state.MainPlayer.SetSpeed(req.Speed); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type seekRequest struct {
	Position float64 `json:"position"`
}

func (s *Server) handlePlayerSeek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}
	if err := s.state.MainPlayer.Seek(req.Position); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- sql passthrough --------------------------------------------------------

type sqlRequest struct {
	Query string `json:"query"`
}

// handleSQL is a read-only passthrough: only a leading SELECT is accepted,
// everything else is rejected before it ever reaches the driver.
func (s *Server) handleSQL(c *gin.Context) {
	var req sqlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid_request"})
		return
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(req.Query)), "SELECT") {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "only SELECT statements are permitted"})
		return
	}

	rows, err := s.state.Catalog.DB().Query(req.Query)
	if err != nil {
		errorResponse(c, err)
		return
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		errorResponse(c, err)
		return
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			errorResponse(c, err)
			return
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "rows": out})
}
