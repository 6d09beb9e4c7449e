package maplayer

import (
	"math"
	"sync"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Grid clustering parameters, in screen pixels on 256px tiles.
const (
	tileSize        = 256
	clusterCellSize = 60
)

// Cluster is a group of nearby markers drawn as one bubble.
type Cluster struct {
	Icon      ClusterIcon `json:"icon"`
	MemberIDs []string    `json:"memberIds"`
	Lat       float64     `json:"lat"`
	Lng       float64     `json:"lng"`
	Count     int         `json:"count"`
}

// Scene is the materialized map as served to the browser.
// A nil layer slice means the layer is detached; an empty one means it is
// attached with nothing to draw.
type Scene struct {
	Markers  []Marker      `json:"markers"`
	Clusters []Cluster     `json:"clusters"`
	Heatmap  []HeatPoint   `json:"heatmap"`
	Center   models.LatLng `json:"center"`
	Zoom     int           `json:"zoom"`
}

// SceneRenderer is a Renderer that keeps the attached layers in memory and
// clusters points on demand for the current zoom.
type SceneRenderer struct {
	mu       sync.RWMutex
	markers  *MarkerLayer
	clusters *ClusterLayer
	heatmap  *HeatmapLayer
	center   models.LatLng
	zoom     int
}

// NewSceneRenderer creates an empty renderer.
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{}
}

func (r *SceneRenderer) SetMarkers(layer *MarkerLayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = layer
}

func (r *SceneRenderer) SetCluster(layer *ClusterLayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clusters = layer
}

func (r *SceneRenderer) SetHeatmap(layer *HeatmapLayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heatmap = layer
}

func (r *SceneRenderer) SetView(center models.LatLng, zoom int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.center = center
	r.zoom = zoom
}

// Scene snapshots the attached layers.
func (r *SceneRenderer) Scene() Scene {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Scene{Center: r.center, Zoom: r.zoom}
	if r.markers != nil {
		s.Markers = append([]Marker{}, r.markers.Markers...)
	}
	if r.clusters != nil {
		s.Clusters = clusterPoints(r.clusters.Points, r.zoom, r.clusters.Icon)
	}
	if r.heatmap != nil {
		s.Heatmap = append([]HeatPoint{}, r.heatmap.Points...)
	}
	return s
}

type cellKey struct {
	x, y int64
}

// clusterPoints groups markers falling into the same grid cell. Cells are
// emitted in the order their first member appears.
func clusterPoints(points []Marker, zoom int, icon ClusterIconFunc) []Cluster {
	if icon == nil {
		icon = DefaultClusterIcon
	}

	cell := cellDegrees(zoom)
	index := make(map[cellKey]int)
	out := make([]Cluster, 0)
	sums := make([][2]float64, 0)

	for _, p := range points {
		key := cellKey{
			x: int64(math.Floor(p.Lng / cell)),
			y: int64(math.Floor(p.Lat / cell)),
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Cluster{})
			sums = append(sums, [2]float64{})
		}
		out[i].Count++
		out[i].MemberIDs = append(out[i].MemberIDs, p.ID)
		sums[i][0] += p.Lat
		sums[i][1] += p.Lng
	}

	for i := range out {
		n := float64(out[i].Count)
		out[i].Lat = sums[i][0] / n
		out[i].Lng = sums[i][1] / n
		out[i].Icon = icon(out[i].Count)
	}
	return out
}

// cellDegrees is the width of a clustering cell in degrees at the given zoom.
func cellDegrees(zoom int) float64 {
	return 360.0 / (tileSize * math.Pow(2, float64(zoom))) * clusterCellSize
}
