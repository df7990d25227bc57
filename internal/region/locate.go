package region

import "math"

// kdNode indexes a region by position; axis 0 splits on longitude, 1 on latitude.
type kdNode struct {
	idx  int
	lat  float64
	lng  float64
	axis int
	l, r *kdNode
}

type point struct {
	idx      int
	lat, lng float64
}

func buildTree(regions []Region) *kdNode {
	pts := make([]point, len(regions))
	for i, r := range regions {
		pts[i] = point{idx: i, lat: r.Lat, lng: r.Lng}
	}
	return build(pts, 0)
}

func build(pts []point, depth int) *kdNode {
	if len(pts) == 0 {
		return nil
	}
	axis := depth % 2
	mid := len(pts) / 2
	selectNth(pts, mid, axis)
	n := &kdNode{idx: pts[mid].idx, lat: pts[mid].lat, lng: pts[mid].lng, axis: axis}
	n.l = build(pts[:mid], depth+1)
	n.r = build(pts[mid+1:], depth+1)
	return n
}

// selectNth: in-place quickselect so that a[n] sits at its sorted position on axis.
func selectNth(a []point, n, axis int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, axis)
		switch {
		case p == n:
			return
		case n < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition(a []point, lo, hi, pivot, axis int) int {
	pv := a[pivot]
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if less(a[j], pv, axis) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func less(x, y point, axis int) bool {
	if axis == 0 {
		return x.lng < y.lng
	}
	return x.lat < y.lat
}

// nearest returns the region index and distance in km; -1 on an empty tree.
func nearest(root *kdNode, lat, lng float64) (int, float64) {
	best, bestD := -1, math.MaxFloat64
	var walk func(n *kdNode)
	walk = func(n *kdNode) {
		if n == nil {
			return
		}
		if d := Haversine(lat, lng, n.lat, n.lng); d < bestD {
			best, bestD = n.idx, d
		}
		key, split := lat, n.lat
		if n.axis == 0 {
			key, split = lng, n.lng
		}
		first, second := n.l, n.r
		if key > split {
			first, second = n.r, n.l
		}
		walk(first)
		if splitDistance(n.axis, lat, key-split) < bestD {
			walk(second)
		}
	}
	walk(root)
	return best, bestD
}

const (
	earthKm = 6371.0
	rad     = math.Pi / 180
)

// splitDistance is a lower bound in km from the query to any point across a
// split plane offset by delta degrees. A latitude split is a parallel, so the
// meridian arc is exact. A longitude split is a meridian great circle, whose
// distance from the query is asin(cos(lat) * sin(dlng)) for dlng under 90
// degrees; wider gaps are never pruned.
func splitDistance(axis int, lat, delta float64) float64 {
	delta = math.Abs(delta) * rad
	if axis != 0 {
		return earthKm * delta
	}
	if delta >= math.Pi/2 {
		return 0
	}
	return earthKm * math.Asin(math.Cos(lat*rad)*math.Sin(delta))
}

// Haversine: great-circle distance in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
