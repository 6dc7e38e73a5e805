package main

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// API holds what the HTTP handlers read from. db and analytics may be nil.
type API struct {
	hub       *Hub
	db        *DB
	analytics *Analytics
}

// SetupRouter configures HTTP routes. clientDir "" disables static files.
func SetupRouter(hub *Hub, db *DB, analytics *Analytics, clientDir string) *gin.Engine {
	api := &API{hub: hub, db: db, analytics: analytics}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ws", api.handleWebsocket)
	r.GET("/healthz", api.handleHealth)

	g := r.Group("/api")
	g.GET("/sessions", api.listSessions)
	g.POST("/sessions", api.createSession)
	g.GET("/sessions/:id/records", api.sessionRecords)
	g.GET("/sessions/:id/matches", api.sessionMatches)
	g.GET("/leaderboard", api.leaderboard)
	g.POST("/token", api.issueToken)

	if clientDir != "" {
		fs := http.FileServer(http.Dir(clientDir))
		r.NoRoute(func(c *gin.Context) {
			c.Header("Cache-Control", "no-cache")
			// SPA: serve index.html for root and UUID paths
			if p := c.Request.URL.Path; p == "/" || uuidPathRe.MatchString(p) {
				c.File(filepath.Join(clientDir, "index.html"))
				return
			}
			fs.ServeHTTP(c.Writer, c.Request)
		})
	}
	return r
}

// requestLogger logs each request through zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		Logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	}
}

func (a *API) handleWebsocket(c *gin.Context) {
	ip := extractIP(c.Request)
	if !a.hub.CanAccept(ip) {
		c.String(http.StatusServiceUnavailable, "too many connections")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger.Warn().Err(err).Str("remote", ip).Msg("upgrade")
		return
	}

	a.hub.TrackConnect(ip)

	client := NewClient(a.hub, conn, ip)
	a.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": len(a.hub.sessions.ListSessions()),
		"clients":  a.hub.ClientCount(),
	})
}

func (a *API) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, a.hub.sessions.ListSessions())
}

type createSessionRequest struct {
	Name string `json:"name"`
}

func (a *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorMsg{Msg: "invalid body"})
		return
	}
	if req.Name == "" {
		req.Name = defaultSessionName
	}
	if len(req.Name) > maxSessionNameLen {
		req.Name = req.Name[:maxSessionNameLen]
	}
	sess, err := a.hub.sessions.CreateSession(req.Name, a.hub.terrain)
	if err != nil {
		if errors.Is(err, ErrResourceExhausted) {
			c.JSON(http.StatusServiceUnavailable, ErrorMsg{Msg: "too many active sessions"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorMsg{Msg: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess.Info())
}

// RecordResponse is one persisted entity as served over HTTP
type RecordResponse struct {
	Kind    string      `json:"kind"`
	ID      string      `json:"id"`
	RegionX int         `json:"rx"`
	RegionY int         `json:"ry"`
	State   interface{} `json:"state"`
}

// sessionRecords serves the last persisted snapshot of a world, optionally
// limited to one region with ?rx=&ry=
func (a *API) sessionRecords(c *gin.Context) {
	if a.db == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorMsg{Msg: "no database"})
		return
	}
	id := c.Param("id")
	var records []EntityRecord
	var err error
	rx, rxOK := c.GetQuery("rx")
	ry, ryOK := c.GetQuery("ry")
	if rxOK || ryOK {
		x, errX := strconv.Atoi(rx)
		y, errY := strconv.Atoi(ry)
		if errX != nil || errY != nil {
			c.JSON(http.StatusBadRequest, ErrorMsg{Msg: "rx and ry must be integers"})
			return
		}
		records, err = a.db.RecordsInRegion(id, RegionKey{X: x, Y: y})
	} else {
		records, err = a.db.WorldRecords(id)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorMsg{Msg: err.Error()})
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		state, err := DecodeRecord(r)
		if err != nil {
			Logger.Warn().Err(err).Str("world", id).Msg("skip undecodable record")
			continue
		}
		out = append(out, RecordResponse{Kind: r.Kind.String(), ID: r.ID, RegionX: r.Region.X, RegionY: r.Region.Y, State: state})
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) sessionMatches(c *gin.Context) {
	if a.db == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorMsg{Msg: "no database"})
		return
	}
	matches, err := a.db.RecentMatches(c.Param("id"), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorMsg{Msg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (a *API) leaderboard(c *gin.Context) {
	if a.analytics == nil || a.db == nil {
		c.JSON(http.StatusOK, []KillerRow{})
		return
	}
	rows, err := a.analytics.TopKillers(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorMsg{Msg: err.Error()})
		return
	}
	if rows == nil {
		rows = []KillerRow{}
	}
	c.JSON(http.StatusOK, rows)
}

type tokenRequest struct {
	Name string `json:"name"`
}

func (a *API) issueToken(c *gin.Context) {
	if a.hub.auth == nil {
		c.JSON(http.StatusNotFound, ErrorMsg{Msg: "auth disabled"})
		return
	}
	if !a.hub.auth.CheckRate(extractIP(c.Request)) {
		c.JSON(http.StatusTooManyRequests, ErrorMsg{Msg: "too many requests, try again later"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorMsg{Msg: "invalid body"})
		return
	}
	token, err := a.hub.auth.IssueToken(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorMsg{Msg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
