// Package server exposes the loaded taggers over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger"
)

// TagRequest is the body of a tagging request. Sentences, when given, are
// used as they are; otherwise Text is split into tokenized sentences.
type TagRequest struct {
	Text      string     `json:"text"`
	Sentences [][]string `json:"sentences"`
}

type serverInfo struct {
	Name  string          `json:"name"`
	Tasks []metadata.Task `json:"tasks"`
}

type Server struct {
	conf    *config.Conf
	taggers map[metadata.Task]tagger.Tagger
	server  *http.Server
}

// New creates a server over already loaded taggers.
func New(conf *config.Conf, taggers ...tagger.Tagger) *Server {
	s := &Server{conf: conf, taggers: make(map[metadata.Task]tagger.Tagger)}
	for _, t := range taggers {
		s.taggers[t.Task()] = t
	}
	return s
}

// LoadTaggers loads the tagger of every configured task.
func LoadTaggers(conf *config.Conf) ([]tagger.Tagger, error) {
	ans := make([]tagger.Tagger, 0, len(conf.Tasks))
	for _, task := range conf.Tasks {
		t, err := tagger.Load(conf.Paths(), task, conf.NoRepeat)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s tagger: %w", task, err)
		}
		log.Info().Str("task", string(task)).Msg("loaded tagger")
		ans = append(ans, t)
	}
	return ans, nil
}

func (s *Server) tasks() []metadata.Task {
	ans := make([]metadata.Task, 0, len(s.taggers))
	for _, task := range metadata.Tasks {
		if _, ok := s.taggers[task]; ok {
			ans = append(ans, task)
		}
	}
	return ans
}

// Handler returns the gin engine serving the API.
func (s *Server) Handler() http.Handler {
	if !s.conf.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	engine.GET("/", s.info)
	engine.GET("/tag/:task", s.tagQuery)
	engine.POST("/tag/:task", s.tagBody)
	return engine
}

func (s *Server) info(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, serverInfo{Name: "nlpnet", Tasks: s.tasks()})
}

func (s *Server) findTagger(ctx *gin.Context) (tagger.Tagger, bool) {
	task := metadata.Task(ctx.Param("task"))
	t, ok := s.taggers[task]
	if !ok {
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("no tagger loaded for task %s", task), http.StatusNotFound)
	}
	return t, ok
}

func (s *Server) respond(ctx *gin.Context, t tagger.Tagger, req TagRequest) {
	var result tagger.Result
	var err error
	if len(req.Sentences) > 0 {
		result, err = t.TagSentences(req.Sentences)

	} else if req.Text != "" {
		result, err = tagger.TagText(t, req.Text)

	} else {
		uniresp.RespondWithErrorJSON(ctx, errors.New("nothing to tag"), http.StatusBadRequest)
		return
	}
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, result)
}

func (s *Server) tagQuery(ctx *gin.Context) {
	t, ok := s.findTagger(ctx)
	if !ok {
		return
	}
	s.respond(ctx, t, TagRequest{Text: ctx.Query("text")})
}

func (s *Server) tagBody(ctx *gin.Context) {
	t, ok := s.findTagger(ctx)
	if !ok {
		return
	}
	var req TagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	s.respond(ctx, t, req)
}

// Start listens in the background until Stop is called.
func (s *Server) Start(ctx context.Context) {
	log.Info().Msgf("starting to listen at %s", s.conf.ListenAddress)
	s.server = &http.Server{
		Handler:      s.Handler(),
		Addr:         s.conf.ListenAddress,
		WriteTimeout: time.Duration(s.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(s.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Warn().Msg("shutting down the tagging server")
	return s.server.Shutdown(ctx)
}
