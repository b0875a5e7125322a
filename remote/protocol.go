// Package remote connects an external trainer to the environment over a
// WebSocket.
package remote

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeStep    = "STEP"
	TypeAct     = "ACT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// HELLO (trainer -> env)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name,omitempty"`
}

// WELCOME (env -> trainer)
type WelcomeMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	RunID           string  `json:"run_id"`
	ObservationSize int     `json:"observation_size"`
	ActionSize      int     `json:"action_size"`
	DT              float64 `json:"dt"`
	MaxStep         int     `json:"max_step"`
	Training        bool    `json:"training"`
}

// STEP (env -> trainer). Every STEP with Done unset expects an ACT reply.
type StepMsg struct {
	Type        string    `json:"type"`
	Episode     int       `json:"episode"`
	Step        int       `json:"step"`
	Observation []float64 `json:"observation"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
	Interrupted bool      `json:"interrupted,omitempty"`
}

// ACT (trainer -> env)
type ActMsg struct {
	Type   string     `json:"type"`
	Action [5]float64 `json:"action"`
}

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://hummingbird.local/schemas/"

var schemaFiles = map[string]string{
	TypeHello:   "hello.schema.json",
	TypeWelcome: "welcome.schema.json",
	TypeStep:    "step.schema.json",
	TypeAct:     "act.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for _, file := range schemaFiles {
			data, err := schemaFS.ReadFile("schemas/" + file)
			if err != nil {
				schemasErr = err
				return
			}
			if err := c.AddResource(schemaBase+file, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("adding schema %s: %w", file, err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(schemaFiles))
		for typ, file := range schemaFiles {
			s, err := c.Compile(schemaBase + file)
			if err != nil {
				schemasErr = fmt.Errorf("compiling schema %s: %w", file, err)
				return
			}
			out[typ] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// Validate checks a raw message against the schema for its declared type.
func Validate(msg []byte) (string, error) {
	base, err := DecodeBase(msg)
	if err != nil {
		return "", fmt.Errorf("decoding message: %w", err)
	}
	all, err := compileSchemas()
	if err != nil {
		return "", err
	}
	s, ok := all[base.Type]
	if !ok {
		return base.Type, fmt.Errorf("unknown message type %q", base.Type)
	}

	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return base.Type, fmt.Errorf("decoding message: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return base.Type, fmt.Errorf("invalid %s: %w", base.Type, err)
	}
	return base.Type, nil
}

// decodeAs validates msg, requires the given type and unmarshals it into v.
func decodeAs(msg []byte, want string, v any) error {
	typ, err := Validate(msg)
	if err != nil {
		return err
	}
	if typ != want {
		return fmt.Errorf("expected %s, got %s", want, typ)
	}
	return json.Unmarshal(msg, v)
}
