package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

// File is the on-disk catalog format.
type File struct {
	Providers []ProviderDef `yaml:"providers"`
}

// ProviderDef describes one HTTP provider in a catalog file.
type ProviderDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Available   *bool          `yaml:"available"`
	BaseURL     string         `yaml:"base_url"`
	Auth        AuthDef        `yaml:"auth"`
	Operations  []OperationDef `yaml:"operations"`
}

// AuthDef selects how credentials are applied to requests.
type AuthDef struct {
	// Type is one of none, bearer, header, basic.
	Type   string `yaml:"type"`
	Header string `yaml:"header"`
}

// OperationDef maps one operation onto an HTTP endpoint.
type OperationDef struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Method      string     `yaml:"method"`
	Path        string     `yaml:"path"`
	Params      []ParamDef `yaml:"params"`
}

// ParamDef describes one operation parameter and where it is sent.
type ParamDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	// In is one of query, path, body. Defaults to query for GET, body otherwise.
	In string `yaml:"in"`
}

// Auth types.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthHeader = "header"
	AuthBasic  = "basic"
)

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) normalize() error {
	seen := make(map[string]bool)
	for i := range f.Providers {
		p := &f.Providers[i]
		if p.ID == "" {
			return fmt.Errorf("providers[%d]: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("provider %s: duplicate id", p.ID)
		}
		seen[p.ID] = true

		if p.Name == "" {
			p.Name = p.ID
		}
		if p.Auth.Type == "" {
			p.Auth.Type = AuthNone
		}
		switch p.Auth.Type {
		case AuthNone, AuthBearer, AuthHeader, AuthBasic:
		default:
			return fmt.Errorf("provider %s: unknown auth type %q", p.ID, p.Auth.Type)
		}
		if p.Auth.Type == AuthHeader && p.Auth.Header == "" {
			p.Auth.Header = "X-API-Key"
		}

		ops := make(map[string]bool)
		for j := range p.Operations {
			op := &p.Operations[j]
			if op.Name == "" {
				return fmt.Errorf("provider %s: operations[%d]: name is required", p.ID, j)
			}
			if ops[op.Name] {
				return fmt.Errorf("provider %s: duplicate operation %s", p.ID, op.Name)
			}
			ops[op.Name] = true

			op.Method = strings.ToUpper(op.Method)
			if op.Method == "" {
				op.Method = "GET"
			}
			for k := range op.Params {
				prm := &op.Params[k]
				if prm.In == "" {
					if op.Method == "GET" || op.Method == "DELETE" {
						prm.In = "query"
					} else {
						prm.In = "body"
					}
				}
			}
		}
	}
	return nil
}

// Descriptor returns the catalog descriptor for the definition.
func (p ProviderDef) Descriptor() models.ProviderDescriptor {
	available := true
	if p.Available != nil {
		available = *p.Available
	}
	return models.ProviderDescriptor{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Available:   available,
	}
}

// Entries builds catalog entries backed by HTTP clients.
func (f *File) Entries() []Entry {
	entries := make([]Entry, 0, len(f.Providers))
	for _, p := range f.Providers {
		entries = append(entries, Entry{
			Descriptor: p.Descriptor(),
			Factory:    HTTPFactory(p),
			Operations: len(p.Operations),
		})
	}
	return entries
}

// Load reads a catalog file into a new Catalog.
func Load(path string) (*Catalog, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(f.Entries()...)
}
