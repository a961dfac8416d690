package api

import "github.com/samcharles93/spmio/internal/export"

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Format  string `json:"format,omitempty"`
}

type FormatInfo struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`
}

type FormatList struct {
	Object string       `json:"object"`
	Data   []FormatInfo `json:"data"`
}

type Candidate struct {
	Format string `json:"format"`
	Score  int    `json:"score"`
}

type DetectResponse struct {
	Object     string      `json:"object"`
	Name       string      `json:"name,omitempty"`
	Size       int         `json:"size"`
	NameOnly   bool        `json:"name_only,omitempty"`
	Best       string      `json:"best,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// LoadRecord is what POST /v1/load returns and GET /v1/loads/:id replays.
type LoadRecord struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	CreatedAt int64            `json:"created_at"`
	Name      string           `json:"name,omitempty"`
	Size      int              `json:"size"`
	Document  *export.Document `json:"document"`
}

type LoadList struct {
	Object string       `json:"object"`
	Data   []LoadRecord `json:"data"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
