// Package maplayer composes the marker, cluster and heatmap layers of the
// property map over a Renderer.
package maplayer

import (
	"fmt"
	"strconv"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Layer names a toggleable map layer.
type Layer string

const (
	LayerMarkers  Layer = "markers"
	LayerClusters Layer = "clusters"
	LayerHeatmap  Layer = "heatmap"
)

// ParseLayer converts a path segment into a Layer.
func ParseLayer(s string) (Layer, error) {
	switch Layer(s) {
	case LayerMarkers, LayerClusters, LayerHeatmap:
		return Layer(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
}

// Marker is a single property pin.
type Marker struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Price   float64 `json:"price"`
	Bracket int     `json:"bracket"`
}

// MarkerLayer draws one marker per filtered property.
type MarkerLayer struct {
	Markers []Marker
}

// ClusterIcon is what a cluster bubble displays.
type ClusterIcon struct {
	Label string `json:"label"`
	Size  string `json:"size"`
}

// ClusterIconFunc renders the icon for a cluster with count members.
type ClusterIconFunc func(count int) ClusterIcon

// Member counts at which a cluster bubble grows.
const (
	DefaultClusterMediumAt = 10
	DefaultClusterLargeAt  = 100
)

// DefaultClusterIcon shows the member count, sized by magnitude.
func DefaultClusterIcon(count int) ClusterIcon {
	return SizedClusterIcon(DefaultClusterMediumAt, DefaultClusterLargeAt)(count)
}

// SizedClusterIcon labels clusters with their member count; bubbles are
// medium from mediumAt members and large from largeAt.
func SizedClusterIcon(mediumAt, largeAt int) ClusterIconFunc {
	return func(count int) ClusterIcon {
		size := "large"
		switch {
		case count < mediumAt:
			size = "small"
		case count < largeAt:
			size = "medium"
		}
		return ClusterIcon{Label: strconv.Itoa(count), Size: size}
	}
}

// ClusterLayer hands the filtered points to the renderer's clustering.
type ClusterLayer struct {
	Icon   ClusterIconFunc
	Points []Marker
}

// HeatPoint is one weighted heatmap sample.
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// HeatmapLayer carries the weighted samples of the heatmap.
type HeatmapLayer struct {
	Points []HeatPoint
}

// Renderer is the capability the controller draws through.
// A nil layer detaches and destroys the previously attached one.
type Renderer interface {
	SetMarkers(layer *MarkerLayer)
	SetCluster(layer *ClusterLayer)
	SetHeatmap(layer *HeatmapLayer)
	SetView(center models.LatLng, zoom int)
}
