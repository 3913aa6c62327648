package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/aleph-zero/lifo/service/harness"
	"io"
	"net/http"
)

type ProcessFunc func(harness.Scenario) error

// ProcessScenarioStream reads scenarios from the request body. A body that
// starts with '[' is a JSON array, one that starts with '{' a stream of JSON
// objects; anything else is parsed as YAML documents.
func ProcessScenarioStream(r *http.Request, process ProcessFunc) error {
	defer r.Body.Close()

	// Peek at the first non-whitespace byte
	buf := new(bytes.Buffer)
	tee := io.TeeReader(r.Body, buf)

	first, err := firstNonSpace(tee)
	if err != nil {
		return fmt.Errorf("error reading first byte: %w", err)
	}

	// Reset the body to read from our buffer
	r.Body = io.NopCloser(io.MultiReader(buf, r.Body))

	switch first {
	case '[':
		return processJsonArray(r.Body, process)
	case '{':
		return processJsonObjects(r.Body, process)
	default:
		return processYaml(r.Body, process)
	}
}

func firstNonSpace(reader io.Reader) (byte, error) {
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(reader, b); err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b[0], nil
	}
}

func processJsonArray(reader io.Reader, process ProcessFunc) error {
	decoder := json.NewDecoder(reader)

	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected opening [")
	}

	for decoder.More() {
		var item harness.Scenario
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("error decoding array item: %w", err)
		}

		if err := process(item); err != nil {
			return fmt.Errorf("error processing item: %w", err)
		}
	}

	tok, err = decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading closing token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != ']' {
		return fmt.Errorf("expected closing ]")
	}

	return nil
}

func processJsonObjects(reader io.Reader, process ProcessFunc) error {
	decoder := json.NewDecoder(reader)

	for {
		var item harness.Scenario
		if err := decoder.Decode(&item); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error decoding JSON object: %w", err)
		}

		if err := process(item); err != nil {
			return fmt.Errorf("error processing item: %w", err)
		}
	}

	return nil
}

func processYaml(reader io.Reader, process ProcessFunc) error {
	scenarios, err := harness.ParseScenarios(reader)
	if err != nil {
		return err
	}
	for _, item := range scenarios {
		if err := process(item); err != nil {
			return fmt.Errorf("error processing item: %w", err)
		}
	}
	return nil
}
