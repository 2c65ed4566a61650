package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/skinbake/config"
	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/status"
	"github.com/mogaika/skinbake/webutils"
)

// Server exposes a rig that may still be loading.
// Every rig endpoint answers 503 until the load finishes.
type Server struct {
	pending *rig.Pending
	cfg     *config.Config
	status  *status.Broadcaster
}

func NewServer(pending *rig.Pending, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{pending: pending, cfg: cfg, status: status.NewBroadcaster()}
	go s.reportLoad()
	return s
}

// reportLoad publishes the load outcome to status clients.
func (s *Server) reportLoad() {
	s.status.Progress(0, "Loading rig")
	<-s.pending.Ready()

	r, err := s.pending.Wait(context.Background())
	if err != nil {
		s.status.Error("Failed to load rig: %v", err)
		return
	}
	s.status.Info("Loaded rig: %d joints, %d keyframes", r.Skeleton.Len(), len(r.Clip.Keyframes))
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	s.status.NewClient(conn)
}

type jsonStatus struct {
	Clients int
	Last    json.RawMessage
}

func (s *Server) HandlerStatusJson(w http.ResponseWriter, r *http.Request) {
	js := jsonStatus{Clients: s.status.Clients(), Last: s.status.Last()}
	if js.Last == nil {
		js.Last = json.RawMessage("null")
	}
	webutils.WriteJson(w, &js)
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/skeleton", s.HandlerSkeleton).Methods("GET")
	r.HandleFunc("/json/skeleton/{joint}", s.HandlerJoint).Methods("GET")
	r.HandleFunc("/json/clip", s.HandlerClip).Methods("GET")
	r.HandleFunc("/json/clip/{frame:[0-9]+}", s.HandlerClipFrame).Methods("GET")
	r.HandleFunc("/json/config", s.HandlerConfig).Methods("GET")
	r.HandleFunc("/json/status", s.HandlerStatusJson).Methods("GET")
	r.HandleFunc("/dump/config", s.HandlerDumpConfig).Methods("GET")
	r.HandleFunc("/dump/clip.json", s.HandlerDumpClip).Methods("GET")
	r.HandleFunc("/dump/rig.txt", s.HandlerDumpRig).Methods("GET")
	r.HandleFunc("/dump/skeleton.fbx", s.HandlerDumpSkeletonFbx).Methods("GET")
	r.HandleFunc("/dump/gpu/keyframe/{frame:[0-9]+}", s.HandlerDumpKeyframe).Methods("GET")
	r.HandleFunc("/dump/gpu/{buffer}", s.HandlerDumpGPU).Methods("GET")
	r.HandleFunc("/ws/playback", s.HandlerPlayback)
	r.HandleFunc("/ws/status", s.HandlerStatus)
	return r
}

func StartServer(addr string, pending *rig.Pending, cfg *config.Config) error {
	s := NewServer(pending, cfg)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
