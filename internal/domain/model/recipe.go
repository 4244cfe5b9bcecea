package model

import (
	"errors"
	"strings"
)

// Endpoint selects one of the configured catalog URLs by logical name.
type Endpoint string

const (
	EndpointNormal    Endpoint = "normal"
	EndpointMalformed Endpoint = "malformed"
	EndpointEmpty     Endpoint = "empty"
)

var ErrUnknownEndpoint = errors.New("unknown catalog endpoint")

func (e Endpoint) IsValid() bool {
	switch e {
	case EndpointNormal, EndpointMalformed, EndpointEmpty:
		return true
	default:
		return false
	}
}

func (e Endpoint) String() string {
	return string(e)
}

// ParseEndpoint maps a logical name to an Endpoint.
// An empty name selects EndpointNormal.
func ParseEndpoint(name string) (Endpoint, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EndpointNormal, nil
	}
	e := Endpoint(name)
	if !e.IsValid() {
		return "", ErrUnknownEndpoint
	}
	return e, nil
}

// Recipe is a single catalog record. ID, Cuisine and Name are always set;
// the URL fields are empty when the catalog omits them.
type Recipe struct {
	ID            string
	Cuisine       string
	Name          string
	PhotoURLLarge string
	PhotoURLSmall string
	SourceURL     string
	YouTubeURL    string
}

// ThumbnailURL returns the image used in list rows.
func (r Recipe) ThumbnailURL() string {
	return r.PhotoURLSmall
}

// DetailImageURL returns the large photo, falling back to the small one.
func (r Recipe) DetailImageURL() string {
	if r.PhotoURLLarge != "" {
		return r.PhotoURLLarge
	}
	return r.PhotoURLSmall
}
