package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin   = "join"
	MsgLeave  = "leave"
	MsgCmd    = "cmd"
	MsgCreate = "create" // create session
	MsgList   = "list"   // list sessions
	MsgCheck  = "check"  // check if session exists
)

// Server -> Client message types
const (
	MsgState    = "state"
	MsgWelcome  = "welcome"
	MsgTerrain  = "terrain"
	MsgResults  = "results"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created"
	MsgError    = "error"
	MsgChecked  = "checked"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Token     string `json:"token,omitempty"`
	Class     int    `json:"class,omitempty"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Phase   string `json:"phase"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	PlayerID string `json:"pid"`
	TankID   string `json:"tid"`
	Alliance int    `json:"al"`
	Code     string `json:"code"`
}

// TankState is broadcast per tank
type TankState struct {
	ID       string  `msgpack:"id" json:"id"`
	Name     string  `msgpack:"n" json:"n"`
	Code     string  `msgpack:"c" json:"c"`
	Alliance int     `msgpack:"al" json:"al"`
	Class    int     `msgpack:"cl" json:"cl"`
	X        float64 `msgpack:"x" json:"x"`
	Y        float64 `msgpack:"y" json:"y"`
	VX       float64 `msgpack:"vx" json:"vx"`
	VY       float64 `msgpack:"vy" json:"vy"`
	R        float64 `msgpack:"r" json:"r"`   // body rotation
	TR       float64 `msgpack:"tr" json:"tr"` // turret rotation
	HP       float64 `msgpack:"hp" json:"hp"`
	MaxHP    float64 `msgpack:"mhp" json:"mhp"`
	Gun      int     `msgpack:"g" json:"g"`
	Ammo     int     `msgpack:"am" json:"am"`
	Target   string  `msgpack:"tg,omitempty" json:"tg,omitempty"`
	Boost    bool    `msgpack:"b,omitempty" json:"b,omitempty"`
	Immune   bool    `msgpack:"im,omitempty" json:"im,omitempty"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID    string  `msgpack:"id" json:"id"`
	Gun   int     `msgpack:"g" json:"g"`
	X     float64 `msgpack:"x" json:"x"`
	Y     float64 `msgpack:"y" json:"y"`
	R     float64 `msgpack:"r" json:"r"`
	Owner string  `msgpack:"o" json:"o"`
}

// MineState is broadcast per spider mine
type MineState struct {
	ID       string  `msgpack:"id" json:"id"`
	X        float64 `msgpack:"x" json:"x"`
	Y        float64 `msgpack:"y" json:"y"`
	Alliance int     `msgpack:"al" json:"al"`
	Armed    bool    `msgpack:"ar" json:"ar"`
}

// SmokeState is broadcast per smoke cloud
type SmokeState struct {
	ID string  `msgpack:"id" json:"id"`
	X  float64 `msgpack:"x" json:"x"`
	Y  float64 `msgpack:"y" json:"y"`
	R  float64 `msgpack:"r" json:"r"`
}

// PickupState is broadcast per active pickup
type PickupState struct {
	ID   string `msgpack:"id" json:"id"`
	X    int    `msgpack:"x" json:"x"`
	Y    int    `msgpack:"y" json:"y"`
	Kind int    `msgpack:"k" json:"k"`
	Gun  int    `msgpack:"g" json:"g"`
}

// TileState reports a tile whose hit points changed
type TileState struct {
	X  int `msgpack:"x" json:"x"`
	Y  int `msgpack:"y" json:"y"`
	HP int `msgpack:"hp" json:"hp"`
}

// GameState is the binary state frame
type GameState struct {
	Tanks       []TankState       `msgpack:"t" json:"t"`
	Projectiles []ProjectileState `msgpack:"pr" json:"pr"`
	Mines       []MineState       `msgpack:"m" json:"m"`
	Smokes      []SmokeState      `msgpack:"s" json:"s"`
	Pickups     []PickupState     `msgpack:"pk" json:"pk"`
	Tiles       []TileState       `msgpack:"ti,omitempty" json:"ti,omitempty"`
	Events      []Event           `msgpack:"ev,omitempty" json:"ev,omitempty"`
	Scores      map[int]int       `msgpack:"sc" json:"sc"`
	Phase       string            `msgpack:"ph" json:"ph"`
	Elapsed     float64           `msgpack:"el" json:"el"`
}

// TerrainMsg carries the full map on join and after a reset
type TerrainMsg struct {
	Width  int      `json:"w"`
	Height int      `json:"h"`
	Rows   []string `json:"rows"`
}

// ToState converts to protocol state
func (t *Tank) ToState() TankState {
	s := TankState{
		ID:       t.ID,
		Name:     t.Name,
		Code:     t.Code,
		Alliance: t.Alliance,
		Class:    int(t.Class),
		X:        round2(t.X),
		Y:        round2(t.Y),
		VX:       round2(t.VX),
		VY:       round2(t.VY),
		R:        round2(t.Rotation),
		TR:       round2(t.TurretRotation),
		HP:       round2(t.Health),
		MaxHP:    t.MaxHealth,
		Target:   t.TargetID,
		Boost:    t.Overdrive > 0,
		Immune:   t.Immunity > 0,
	}
	if g := t.SelectedGun(); g != nil {
		s.Gun = int(g.Type)
		s.Ammo = g.Ammo
	}
	return s
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:    p.ID,
		Gun:   int(p.Gun),
		X:     round2(p.X),
		Y:     round2(p.Y),
		R:     round2(p.Heading()),
		Owner: p.ShooterID,
	}
}

// BuildState captures the world for a state frame. Caller holds the lock.
func BuildState(w *World) GameState {
	gs := GameState{
		Tanks:       make([]TankState, 0, len(w.Tanks)),
		Projectiles: make([]ProjectileState, 0, len(w.Projectiles)),
		Mines:       make([]MineState, 0, len(w.Mines)),
		Smokes:      make([]SmokeState, 0, len(w.Smokes)),
		Pickups:     make([]PickupState, 0, len(w.Pickups)),
		Scores:      make(map[int]int, len(w.Scores)),
		Phase:       w.Phase.String(),
		Elapsed:     round2(w.Elapsed),
	}
	for _, id := range sortedKeys(w.Tanks) {
		if t := w.Tanks[id]; t.Alive {
			gs.Tanks = append(gs.Tanks, t.ToState())
		}
	}
	for _, id := range sortedKeys(w.Projectiles) {
		gs.Projectiles = append(gs.Projectiles, w.Projectiles[id].ToState())
	}
	for _, id := range sortedKeys(w.Mines) {
		m := w.Mines[id]
		gs.Mines = append(gs.Mines, MineState{ID: m.ID, X: round2(m.X), Y: round2(m.Y), Alliance: m.Alliance, Armed: m.Planted})
	}
	for _, id := range sortedKeys(w.Smokes) {
		s := w.Smokes[id]
		gs.Smokes = append(gs.Smokes, SmokeState{ID: s.ID, X: round2(s.X), Y: round2(s.Y), R: s.Radius})
	}
	for _, id := range sortedKeys(w.Pickups) {
		p := w.Pickups[id]
		if p.Active {
			gs.Pickups = append(gs.Pickups, PickupState{ID: p.ID, X: p.Tile.X, Y: p.Tile.Y, Kind: int(p.Kind), Gun: int(p.Gun)})
		}
	}
	for a, s := range w.Scores {
		gs.Scores[a] = s
	}
	return gs
}

// BuildTerrain renders the current terrain as layout rows. Caller holds the
// lock.
func BuildTerrain(w *World) TerrainMsg {
	t := w.Terrain
	rows := make([]string, t.Height)
	for y := 0; y < t.Height; y++ {
		row := make([]byte, t.Width)
		for x := 0; x < t.Width; x++ {
			tile := Tile{x, y}
			switch {
			case t.Destructible(tile):
				row[x] = TileWall
			case !t.Shells.Traversable(x, y):
				row[x] = TileRock
			case !t.Tanks.Traversable(x, y):
				row[x] = TileWater
			case w.Fences[tile]:
				row[x] = TileFence
			default:
				row[x] = TileOpen
			}
		}
		rows[y] = string(row)
	}
	return TerrainMsg{Width: t.Width, Height: t.Height, Rows: rows}
}
