package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// GetRepository returns repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var out Repository
	if err := c.get(ctx, "get_repository", "repos/"+owner+"/"+repo, nil, mediaJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContentEntry is a file or directory entry from the contents API.
type ContentEntry struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int    `json:"size"`
	SHA      string `json:"sha"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	HTMLURL  string `json:"html_url"`
}

// Decoded returns the file content of a file entry.
func (e *ContentEntry) Decoded() (string, error) {
	if e.Type != "file" {
		return "", fmt.Errorf("%s is a %s, not a file", e.Path, e.Type)
	}
	switch e.Encoding {
	case "base64":
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(e.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", e.Path, err)
		}
		return string(raw), nil
	case "", "utf-8":
		return e.Content, nil
	case "none":
		return "", fmt.Errorf("%s is too large for the contents API (%d bytes)", e.Path, e.Size)
	}
	return "", fmt.Errorf("%s has unsupported encoding %q", e.Path, e.Encoding)
}

// Contents is either a single file or a directory listing.
type Contents struct {
	File *ContentEntry
	Dir  []ContentEntry
}

// GetContents fetches path at ref. An empty ref means the default branch.
func (c *Client) GetContents(ctx context.Context, owner, repo, path, ref string) (*Contents, error) {
	var query url.Values
	if ref != "" {
		query = url.Values{"ref": {ref}}
	}
	p := "repos/" + owner + "/" + repo + "/contents"
	if path = strings.Trim(path, "/"); path != "" {
		p += "/" + path
	}

	var raw jsoniter.RawMessage
	if err := c.get(ctx, "get_contents", p, query, mediaJSON, &raw); err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var dir []ContentEntry
		if err := json.Unmarshal(trimmed, &dir); err != nil {
			return nil, fmt.Errorf("decoding directory listing: %w", err)
		}
		return &Contents{Dir: dir}, nil
	}
	var file ContentEntry
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decoding file entry: %w", err)
	}
	return &Contents{File: &file}, nil
}

// TreeEntry is one path of a git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// Tree is a git tree listing.
type Tree struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}

// GetTree lists the tree at ref, descending into subtrees when recursive is
// set. Very large trees come back with Truncated set.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*Tree, error) {
	var query url.Values
	if recursive {
		query = url.Values{"recursive": {"1"}}
	}
	var out Tree
	if err := c.get(ctx, "get_tree", "repos/"+owner+"/"+repo+"/git/trees/"+ref, query, mediaJSON, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
