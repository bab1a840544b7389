package models

import (
	"bytes"
	"encoding/json"
)

// Page is a list response. Paginated endpoints return
// {"count":..,"results":[..]}; others return a bare array. Both decode.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	type raw struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	var r raw
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return err
	}
	*p = Page[T]{Count: r.Count, Results: r.Results}
	if r.Next != nil {
		p.Next = *r.Next
	}
	if r.Previous != nil {
		p.Previous = *r.Previous
	}
	if p.Count == 0 {
		p.Count = len(r.Results)
	}
	return nil
}
