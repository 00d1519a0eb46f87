package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ShayCichocki/toolroute/pkg/models"
)

// readPayload reads a resolution payload from path, or from stdin when path is "-".
func readPayload(path string, stdin io.Reader) (*models.ResolutionPayload, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read choices: %w", err)
	}
	return parsePayload(data)
}

func parsePayload(data []byte) (*models.ResolutionPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	payload := models.NewResolutionResult()
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("parse choices: %w", err)
	}
	if payload.AutoSelected == nil {
		payload.AutoSelected = []string{}
	}
	if payload.UserChoices == nil {
		payload.UserChoices = make(map[string][]string)
	}
	for key := range payload.UserChoices {
		if n, err := strconv.Atoi(key); err != nil || n < 0 {
			return nil, fmt.Errorf("parse choices: set index %q is not a non-negative integer", key)
		}
	}
	return payload, nil
}
