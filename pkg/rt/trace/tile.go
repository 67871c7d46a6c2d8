package trace

import "github.com/taigrr/photon/pkg/rt"

// Region is a rectangular sub-region of the output image rendered as one
// work unit (§3/§5).
type Region struct {
	OriginX, OriginY int
	Width, Height    int
}

// generateTiles splits an imgW x imgH image into Region work units of
// tileSize x tileSize, clamping the last row/column.
func generateTiles(imgW, imgH, tileSize int) []Region {
	if tileSize <= 0 {
		tileSize = 32
	}
	var tiles []Region
	for y := 0; y < imgH; y += tileSize {
		h := tileSize
		if y+h > imgH {
			h = imgH - y
		}
		for x := 0; x < imgW; x += tileSize {
			w := tileSize
			if x+w > imgW {
				w = imgW - x
			}
			tiles = append(tiles, Region{OriginX: x, OriginY: y, Width: w, Height: h})
		}
	}
	return tiles
}

// Validate rejects a region that falls outside the image (§6's InvalidRegion).
func (r Region) Validate(imgW, imgH int) error {
	if r.OriginX < 0 || r.OriginY < 0 || r.Width <= 0 || r.Height <= 0 ||
		r.OriginX+r.Width > imgW || r.OriginY+r.Height > imgH {
		return &rt.ConfigError{Kind: rt.InvalidRegion, Message: "tile region falls outside the image"}
	}
	return nil
}
