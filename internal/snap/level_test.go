package snap

import (
	"image/color"
	"math"
	"testing"

	img "chart-tracer/internal/image"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

// solidGrid builds a grid filled with a single color.
func solidGrid(w, h int, c color.RGBA) *img.Grid {
	grid := img.NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			setPixel(grid, x, y, c)
		}
	}
	return grid
}

// lineGrid builds the 64x64 test chart: black background with a 3px-wide
// white horizontal line centered at y=32 spanning x=10..54.
func lineGrid() *img.Grid {
	grid := solidGrid(64, 64, black)
	for y := 31; y <= 33; y++ {
		for x := 10; x <= 54; x++ {
			setPixel(grid, x, y, white)
		}
	}
	return grid
}

func setPixel(grid *img.Grid, x, y int, c color.RGBA) {
	i := (y*grid.Width + x) * 4
	grid.Pix[i] = c.R
	grid.Pix[i+1] = c.G
	grid.Pix[i+2] = c.B
	grid.Pix[i+3] = c.A
}

func TestBaseLevelGradientBorderIsZero(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)
	for x := 0; x < level.Width(); x++ {
		if g := level.gradientAt(x, 0); g != 0 {
			t.Fatalf("top border gradient at x=%d is %v, want 0", x, g)
		}
		if g := level.gradientAt(x, level.Height()-1); g != 0 {
			t.Fatalf("bottom border gradient at x=%d is %v, want 0", x, g)
		}
	}
	for y := 0; y < level.Height(); y++ {
		if g := level.gradientAt(0, y); g != 0 {
			t.Fatalf("left border gradient at y=%d is %v, want 0", y, g)
		}
		if g := level.gradientAt(level.Width()-1, y); g != 0 {
			t.Fatalf("right border gradient at y=%d is %v, want 0", y, g)
		}
	}
}

func TestBaseLevelGradientAtEdges(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)

	// Directly above the line the vertical difference spans black to white.
	if g := level.gradientAt(30, 30); math.Abs(g-255) > 1e-9 {
		t.Errorf("gradient above line = %v, want 255", g)
	}
	// The line's interior row is flat in both directions.
	if g := level.gradientAt(30, 32); g != 0 {
		t.Errorf("gradient at line center = %v, want 0", g)
	}
	// Far from the line everything is flat black.
	if g := level.gradientAt(10, 10); g != 0 {
		t.Errorf("gradient in background = %v, want 0", g)
	}
}

func TestBaseLevelColorSimilarity(t *testing.T) {
	level := buildBaseLevel(lineGrid(), white, 40)

	if s := level.similarityAt(30, 32); s != 1 {
		t.Errorf("similarity on exact target color = %v, want 1", s)
	}
	if s := level.similarityAt(5, 5); s != 0 {
		t.Errorf("similarity on distant color = %v, want 0", s)
	}
	for y := 0; y < level.Height(); y++ {
		for x := 0; x < level.Width(); x++ {
			if s := level.similarityAt(x, y); s < 0 || s > 1 {
				t.Fatalf("similarity at (%d,%d) = %v outside [0,1]", x, y, s)
			}
		}
	}
}

func TestPyramidLevelSizes(t *testing.T) {
	cache := Build(lineGrid(), white, 40)
	if cache == nil {
		t.Fatal("Build returned nil for a valid image")
	}

	// ceil(64 / 2^k) per level until a dimension drops below 4.
	wantSizes := [][2]int{{64, 64}, {32, 32}, {16, 16}, {8, 8}, {4, 4}, {2, 2}}
	if cache.LevelCount() != len(wantSizes) {
		t.Fatalf("LevelCount = %d, want %d", cache.LevelCount(), len(wantSizes))
	}
	scale := 1
	for k, want := range wantSizes {
		level := cache.LevelAt(k)
		if level.Width() != want[0] || level.Height() != want[1] {
			t.Errorf("level %d size = %dx%d, want %dx%d",
				k, level.Width(), level.Height(), want[0], want[1])
		}
		if level.Scale() != scale {
			t.Errorf("level %d scale = %d, want %d", k, level.Scale(), scale)
		}
		scale *= 2
	}
}

func TestPyramidOddSizes(t *testing.T) {
	cache := Build(solidGrid(5, 9, black), white, 40)
	if cache == nil {
		t.Fatal("Build returned nil")
	}
	// 5x9 -> 3x5; 3 < 4 stops the pyramid.
	if cache.LevelCount() != 2 {
		t.Fatalf("LevelCount = %d, want 2", cache.LevelCount())
	}
	level := cache.LevelAt(1)
	if level.Width() != 3 || level.Height() != 5 {
		t.Errorf("level 1 size = %dx%d, want 3x5", level.Width(), level.Height())
	}
}

func TestBuildEmptyImageReturnsNil(t *testing.T) {
	if cache := Build(img.NewGrid(0, 0), white, 40); cache != nil {
		t.Error("Build of empty grid should return nil")
	}
	if cache := Build(nil, white, 40); cache != nil {
		t.Error("Build of nil grid should return nil")
	}
}

func TestDownsampleAveragesPartialBlocks(t *testing.T) {
	// 3x3 grid: left column target-colored, rest black. Downsampling to 2x2
	// averages full 2x2 blocks and partial edge blocks independently.
	grid := solidGrid(3, 3, black)
	for y := 0; y < 3; y++ {
		setPixel(grid, 0, y, white)
	}
	base := buildBaseLevel(grid, white, 40)
	down := base.downsample()
	if down == nil {
		t.Fatal("downsample returned nil")
	}
	if down.Width() != 2 || down.Height() != 2 {
		t.Fatalf("downsample size = %dx%d, want 2x2", down.Width(), down.Height())
	}
	// Top-left block: pixels (0,0),(1,0),(0,1),(1,1) -> two target hits.
	if s := down.similarityAt(0, 0); math.Abs(s-0.5) > 1e-9 {
		t.Errorf("full block similarity = %v, want 0.5", s)
	}
	// Top-right partial block: pixels (2,0),(2,1) -> all black.
	if s := down.similarityAt(1, 0); s != 0 {
		t.Errorf("partial block similarity = %v, want 0", s)
	}
}
