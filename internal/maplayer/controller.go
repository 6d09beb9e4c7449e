package maplayer

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/wealthmap/internal/filter"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Zoom and heatmap constants
const (
	MinZoom = 0
	MaxZoom = 22

	DefaultHeatmapDivisor = 1000000.0
)

var (
	ErrUnknownLayer    = errors.New("unknown layer")
	ErrExclusiveLayers = errors.New("markers and clusters cannot both be visible")
	ErrInvalidView     = errors.New("invalid map view")
)

// Controller owns layer visibility for one map and feeds each visible layer
// the filtered property set. It is not safe for concurrent use; callers
// serialize access (one controller per map session).
type Controller struct {
	renderer       Renderer
	clusterIcon    ClusterIconFunc
	filters        *filter.Model
	all            []models.Property
	filtered       []models.Property
	center         models.LatLng
	heatmapDivisor float64
	zoom           int
	brackets       Brackets
	flags          models.LayerFlags
	// displaced is the marker or cluster layer hidden by showing its
	// partner; it comes back when the partner is hidden again.
	displaced Layer
}

// Option configures a Controller.
type Option func(*Controller)

// WithBrackets overrides the marker price brackets.
func WithBrackets(b Brackets) Option {
	return func(c *Controller) { c.brackets = b }
}

// WithHeatmapDivisor sets the constant wealth values are divided by.
func WithHeatmapDivisor(d float64) Option {
	return func(c *Controller) {
		if d > 0 {
			c.heatmapDivisor = d
		}
	}
}

// WithClusterIcon overrides the cluster icon callback.
func WithClusterIcon(fn ClusterIconFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.clusterIcon = fn
		}
	}
}

// NewController creates a controller with every layer hidden.
func NewController(r Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer:       r,
		brackets:       DefaultBrackets,
		heatmapDivisor: DefaultHeatmapDivisor,
		clusterIcon:    DefaultClusterIcon,
		filtered:       []models.Property{},
		filters:        filter.NewModel(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProperties replaces the in-memory property collection and republishes.
func (c *Controller) SetProperties(props []models.Property) {
	c.all = append([]models.Property(nil), props...)
	c.refilter()
}

// ApplyFilters replaces the active filters and republishes.
func (c *Controller) ApplyFilters(fs models.FilterSet) {
	c.filters.Apply(fs)
	c.refilter()
}

// Filters returns the active filters.
func (c *Controller) Filters() models.FilterSet {
	return c.filters.Active()
}

// Properties returns the unfiltered collection.
func (c *Controller) Properties() []models.Property {
	return append([]models.Property(nil), c.all...)
}

// Filtered returns the current filtered subset.
func (c *Controller) Filtered() []models.Property {
	return append([]models.Property{}, c.filtered...)
}

// Flags reports layer visibility.
func (c *Controller) Flags() models.LayerFlags {
	return c.flags
}

// Visible reports whether a layer is attached.
func (c *Controller) Visible(layer Layer) bool {
	switch layer {
	case LayerMarkers:
		return c.flags.Markers
	case LayerClusters:
		return c.flags.Clusters
	case LayerHeatmap:
		return c.flags.Heatmap
	}
	return false
}

// SetVisible shows or hides a layer. Showing markers hides clusters and vice
// versa, and hiding the one shown restores the one it replaced. The heatmap
// is independent.
func (c *Controller) SetVisible(layer Layer, visible bool) error {
	return c.setVisible(layer, visible, true)
}

func (c *Controller) setVisible(layer Layer, visible, restore bool) error {
	if _, err := ParseLayer(string(layer)); err != nil {
		return err
	}
	if c.Visible(layer) == visible {
		return nil
	}

	partner, paired := exclusivePartner(layer)
	if !paired {
		if visible {
			c.attach(layer)
		} else {
			c.detach(layer)
		}
		return nil
	}

	if visible {
		c.displaced = ""
		if c.Visible(partner) {
			c.detach(partner)
			c.displaced = partner
		}
		c.attach(layer)
		return nil
	}

	c.detach(layer)
	if restore && c.displaced == partner {
		c.attach(partner)
	}
	c.displaced = ""
	return nil
}

// exclusivePartner returns the layer that cannot be shown alongside layer.
func exclusivePartner(layer Layer) (Layer, bool) {
	switch layer {
	case LayerMarkers:
		return LayerClusters, true
	case LayerClusters:
		return LayerMarkers, true
	}
	return "", false
}

// Toggle flips a layer and returns its new visibility.
func (c *Controller) Toggle(layer Layer) (bool, error) {
	next := !c.Visible(layer)
	if err := c.SetVisible(layer, next); err != nil {
		return false, err
	}
	return next, nil
}

// ApplyFlags brings layer visibility in line with flags exactly. No layer
// hidden by an earlier toggle is restored.
func (c *Controller) ApplyFlags(flags models.LayerFlags) error {
	if flags.Markers && flags.Clusters {
		return ErrExclusiveLayers
	}
	c.displaced = ""

	// Hide first so the exclusive pair never overlaps.
	for _, l := range []struct {
		layer   Layer
		visible bool
	}{
		{LayerMarkers, flags.Markers},
		{LayerClusters, flags.Clusters},
		{LayerHeatmap, flags.Heatmap},
	} {
		if !l.visible {
			if err := c.setVisible(l.layer, false, false); err != nil {
				return err
			}
		}
	}
	for _, l := range []struct {
		layer   Layer
		visible bool
	}{
		{LayerMarkers, flags.Markers},
		{LayerClusters, flags.Clusters},
		{LayerHeatmap, flags.Heatmap},
	} {
		if l.visible {
			if err := c.setVisible(l.layer, true, false); err != nil {
				return err
			}
		}
	}
	c.displaced = ""
	return nil
}

// SetView moves the map.
func (c *Controller) SetView(center models.LatLng, zoom int) error {
	if err := ValidateView(center, zoom); err != nil {
		return err
	}
	c.center = center
	c.zoom = zoom
	c.renderer.SetView(center, zoom)
	return nil
}

// View returns the current center and zoom.
func (c *Controller) View() (models.LatLng, int) {
	return c.center, c.zoom
}

// ValidateView checks coordinate and zoom ranges.
func ValidateView(center models.LatLng, zoom int) error {
	if center.Lat < -90 || center.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90, got %f", ErrInvalidView, center.Lat)
	}
	if center.Lng < -180 || center.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180, got %f", ErrInvalidView, center.Lng)
	}
	if zoom < MinZoom || zoom > MaxZoom {
		return fmt.Errorf("%w: zoom must be between %d and %d, got %d", ErrInvalidView, MinZoom, MaxZoom, zoom)
	}
	return nil
}

func (c *Controller) refilter() {
	c.filtered = make([]models.Property, 0, len(c.all))
	for i := range c.all {
		if c.filters.Matches(&c.all[i]) {
			c.filtered = append(c.filtered, c.all[i])
		}
	}
	for _, layer := range []Layer{LayerMarkers, LayerClusters, LayerHeatmap} {
		if c.Visible(layer) {
			c.attach(layer)
		}
	}
}

func (c *Controller) attach(layer Layer) {
	switch layer {
	case LayerMarkers:
		c.flags.Markers = true
		c.renderer.SetMarkers(&MarkerLayer{Markers: c.markers()})
	case LayerClusters:
		c.flags.Clusters = true
		c.renderer.SetCluster(&ClusterLayer{Points: c.markers(), Icon: c.clusterIcon})
	case LayerHeatmap:
		c.flags.Heatmap = true
		c.renderer.SetHeatmap(&HeatmapLayer{Points: c.heatPoints()})
	}
}

func (c *Controller) detach(layer Layer) {
	switch layer {
	case LayerMarkers:
		c.flags.Markers = false
		c.renderer.SetMarkers(nil)
	case LayerClusters:
		c.flags.Clusters = false
		c.renderer.SetCluster(nil)
	case LayerHeatmap:
		c.flags.Heatmap = false
		c.renderer.SetHeatmap(nil)
	}
}

func (c *Controller) markers() []Marker {
	out := make([]Marker, 0, len(c.filtered))
	for _, p := range c.filtered {
		out = append(out, Marker{
			ID:      p.ID,
			Label:   p.Address,
			Lat:     p.Latitude,
			Lng:     p.Longitude,
			Price:   p.Price,
			Bracket: c.brackets.Index(p.Price),
			Color:   c.brackets.Color(p.Price),
		})
	}
	return out
}

func (c *Controller) heatPoints() []HeatPoint {
	out := make([]HeatPoint, 0, len(c.filtered))
	for i := range c.filtered {
		p := &c.filtered[i]
		out = append(out, HeatPoint{
			Lat:       p.Latitude,
			Lng:       p.Longitude,
			Intensity: p.WealthProxy() / c.heatmapDivisor,
		})
	}
	return out
}
