package image

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Grayscale returns a copy of the grid converted to grayscale. The result is
// still an RGBA grid so the snapping engine sees a uniform pixel format.
func Grayscale(g *Grid) (*Grid, error) {
	if g.Empty() {
		return NewGrid(0, 0), nil
	}
	mat, err := gocv.ImageToMatRGBA(g.ToRGBA())
	if err != nil {
		return nil, fmt.Errorf("failed to convert grid to mat: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	back := gocv.NewMat()
	defer back.Close()
	gocv.CvtColor(gray, &back, gocv.ColorGrayToBGR)

	return matToGrid(back)
}

// GaussianBlur returns a blurred copy of the grid. The kernel size is forced
// odd and at least 3.
func GaussianBlur(g *Grid, kernelSize int) (*Grid, error) {
	if g.Empty() {
		return NewGrid(0, 0), nil
	}
	if kernelSize < 3 {
		kernelSize = 3
	}
	if kernelSize%2 == 0 {
		kernelSize++
	}
	mat, err := gocv.ImageToMatRGBA(g.ToRGBA())
	if err != nil {
		return nil, fmt.Errorf("failed to convert grid to mat: %w", err)
	}
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Point{X: kernelSize, Y: kernelSize}, 0, 0, gocv.BorderDefault)

	return matToGrid(blurred)
}

// Invert returns a copy of the grid with all color channels inverted.
// Useful when tracing light curves on dark chart backgrounds.
func Invert(g *Grid) (*Grid, error) {
	if g.Empty() {
		return NewGrid(0, 0), nil
	}
	mat, err := gocv.ImageToMatRGBA(g.ToRGBA())
	if err != nil {
		return nil, fmt.Errorf("failed to convert grid to mat: %w", err)
	}
	defer mat.Close()

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mat, &inverted)

	out, err := matToGrid(inverted)
	if err != nil {
		return nil, err
	}
	// BitwiseNot flips alpha as well; restore full opacity.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out, nil
}

func matToGrid(mat gocv.Mat) (*Grid, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat to image: %w", err)
	}
	return FromImage(img), nil
}
