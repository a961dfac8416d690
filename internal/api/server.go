// Package api exposes detection and decoding over HTTP. Clients upload raw
// file bytes as the request body and name the file with a query parameter.
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/spmio/internal/export"
	"github.com/samcharles93/spmio/internal/importer"
	"github.com/samcharles93/spmio/internal/mapfile"
	"github.com/samcharles93/spmio/internal/version"
)

// DefaultMaxUpload is the body limit when Config.MaxUpload is zero.
const DefaultMaxUpload = 256 << 20

type Config struct {
	Importer  *importer.Importer
	Store     *LoadStore
	MaxUpload int64
}

type Server struct {
	importer  *importer.Importer
	store     *LoadStore
	maxUpload int64
	clock     func() time.Time
}

func NewServer(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = NewLoadStore(0)
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Server{
		importer:  cfg.Importer,
		store:     cfg.Store,
		maxUpload: cfg.MaxUpload,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/version", s.handleVersion)
	e.GET("/v1/formats", s.handleFormats)
	e.POST("/v1/detect", s.handleDetect)
	e.POST("/v1/load", s.handleLoad)
	e.GET("/v1/loads", s.handleListLoads)
	e.GET("/v1/loads/:id", s.handleGetLoad)
	e.DELETE("/v1/loads/:id", s.handleDeleteLoad)
	e.GET("/v1/loads/:id/gsf", s.handleExportGSF)
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleFormats(c *echo.Context) error {
	formats := s.importer.Registry().Formats()
	out := FormatList{Object: "list", Data: make([]FormatInfo, 0, len(formats))}
	for _, f := range formats {
		info := f.Info()
		out.Data = append(out.Data, FormatInfo{ID: info.ID, Label: info.Label, Extensions: info.Extensions})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) readBody(c *echo.Context) (*mapfile.File, error) {
	name := c.QueryParam("name")
	return mapfile.FromReader(name, c.Request().Body, s.maxUpload)
}

func (s *Server) handleDetect(c *echo.Context) error {
	nameOnly, err := boolQuery(c, "name_only")
	if err != nil {
		return writeErr(c, err)
	}
	name := c.QueryParam("name")
	if nameOnly && name == "" {
		return writeBadRequest(c, "name is required for name-only detection")
	}
	var data []byte
	if !nameOnly {
		f, err := s.readBody(c)
		if err != nil {
			return writeErr(c, err)
		}
		data = f.Data
	}

	cands := s.importer.Detect(c.Request().Context(), name, data, nameOnly)
	resp := DetectResponse{
		Object:     "detection",
		Name:       name,
		Size:       len(data),
		NameOnly:   nameOnly,
		Candidates: make([]Candidate, 0, len(cands)),
	}
	for _, cand := range cands {
		resp.Candidates = append(resp.Candidates, Candidate{Format: cand.ID(), Score: cand.Score})
	}
	if len(cands) > 0 {
		resp.Best = cands[0].ID()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLoad(c *echo.Context) error {
	withData, err := boolQuery(c, "data")
	if err != nil {
		return writeErr(c, err)
	}
	f, err := s.readBody(c)
	if err != nil {
		return writeErr(c, err)
	}
	if len(f.Data) == 0 {
		return writeBadRequest(c, "request body is empty")
	}

	res, err := s.importer.Load(c.Request().Context(), f.Name, f.Data, c.QueryParam("format"))
	if err != nil {
		return writeErr(c, err)
	}
	doc := export.NewDocument(res, export.Options{Data: withData, Stats: true})
	rec := s.store.Create(f.Name, len(f.Data), res, doc, s.clock())
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListLoads(c *echo.Context) error {
	return c.JSON(http.StatusOK, LoadList{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetLoad(c *echo.Context) error {
	id := c.Param("id")
	rec, _, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "load not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteLoad(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "load not found")
	}
	return c.JSON(http.StatusOK, DeleteResponse{ID: id, Object: "load.deleted", Deleted: true})
}

func (s *Server) handleExportGSF(c *echo.Context) error {
	id := c.Param("id")
	_, res, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "load not found")
	}
	channel, err := intQuery(c, "channel", 0)
	if err != nil {
		return writeErr(c, err)
	}
	if channel >= len(res.Channels) {
		return writeBadRequest(c, fmt.Sprintf("channel %d out of range (load has %d)", channel, len(res.Channels)))
	}

	var buf bytes.Buffer
	if err := export.WriteGSF(&buf, res.Channels[channel]); err != nil {
		return writeErr(c, err)
	}
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "application/x-gwyddion-gsf")
	w.Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	w.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%d.gsf"`, id, channel))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}
