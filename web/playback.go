package web

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/gpu"
	"github.com/mogaika/skinbake/rig"
)

const (
	writeWait    = 40 * time.Second
	pingPeriod   = 30 * time.Second
	tickInterval = time.Second / 30
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// frameMessage is sent every tick. Snapshots are included only when the keyframe pair changed.
type frameMessage struct {
	Time       float64
	Index      int
	CurrentKey int
	NextKey    int
	Blend      float64
	Static     bool
	Playing    bool
	Current    []rig.Transform `json:",omitempty"`
	Next       []rig.Transform `json:",omitempty"`
	Error      string          `json:",omitempty"`
}

// ApplyCommand executes one playback control message:
// play, pause, toggle, next, back, blend <fraction>, seek <frame>.
func ApplyCommand(p *rig.Player, cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return errors.Errorf("empty command")
	}

	arg := func() (float64, error) {
		if len(fields) != 2 {
			return 0, errors.Errorf("command %q expects one argument", fields[0])
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, errors.Wrapf(err, "command %q", fields[0])
		}
		return v, nil
	}

	switch strings.ToLower(fields[0]) {
	case "play":
		p.Play()
	case "pause":
		p.Pause()
	case "toggle":
		p.Toggle()
	case "next":
		p.StepForward()
	case "back":
		p.StepBackward()
	case "blend":
		v, err := arg()
		if err != nil {
			return err
		}
		p.SetBlend(v)
	case "seek":
		v, err := arg()
		if err != nil {
			return err
		}
		p.Seek(v)
	default:
		return errors.Errorf("unknown command %q", fields[0])
	}
	return nil
}

type playbackClient struct {
	conn     *websocket.Conn
	player   *rig.Player
	stager   *gpu.Stager
	commands chan string
	done     chan struct{}
}

func (s *Server) HandlerPlayback(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}

	c := &playbackClient{
		conn:     conn,
		player:   rg.NewPlayer(s.cfg.PlaybackRate),
		stager:   gpu.NewStager(),
		commands: make(chan string, 16),
		done:     make(chan struct{}),
	}
	go c.readPump()
	c.writePump()
}

func (c *playbackClient) readPump() {
	defer close(c.commands)
	c.conn.SetReadLimit(512)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[web] ws read error: %v", err)
			}
			return
		}
		select {
		case c.commands <- string(msg):
		case <-c.done:
			return
		}
	}
}

func (c *playbackClient) frame() *frameMessage {
	f := c.player.Frame()
	msg := &frameMessage{
		Time:       f.Time,
		Index:      f.Index,
		CurrentKey: f.CurrentKey,
		NextKey:    f.NextKey,
		Blend:      f.Blend,
		Static:     f.Static,
		Playing:    f.Playing,
	}
	if c.stager.Stage(f) {
		msg.Current, msg.Next = f.Current, f.Next
	}
	return msg
}

func (c *playbackClient) send(msg *frameMessage) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("[web] ws write msg error: %v", err)
		return false
	}
	return true
}

// writePump owns the player: it applies commands and streams frames until the client goes away.
func (c *playbackClient) writePump() {
	ticker := time.NewTicker(tickInterval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
		close(c.done)
		c.conn.Close()
	}()

	last := time.Now()
	if !c.send(c.frame()) {
		return
	}
	for {
		select {
		case cmd, ok := <-c.commands:
			if !ok {
				return
			}
			if err := ApplyCommand(c.player, cmd); err != nil {
				if !c.send(&frameMessage{Error: err.Error()}) {
					return
				}
			}
		case now := <-ticker.C:
			c.player.Advance(now.Sub(last))
			last = now
			if !c.send(c.frame()) {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[web] ws write ping error: %v", err)
				return
			}
		}
	}
}
