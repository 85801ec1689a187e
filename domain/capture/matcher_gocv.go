//go:build gocv

package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// OpenCVMatcher runs TM_CCOEFF_NORMED through OpenCV. Build with -tags gocv.
type OpenCVMatcher struct{}

func init() {
	RegisterMatcher("opencv", func(NCCOptions) Matcher { return OpenCVMatcher{} })
}

// Name implements Matcher.
func (OpenCVMatcher) Name() string { return "opencv" }

// Match implements Matcher.
func (OpenCVMatcher) Match(frame *image.RGBA, tmpl image.Image, threshold float64) (MatchResult, error) {
	if frame == nil || tmpl == nil || tmpl.Bounds().Empty() || frame.Bounds().Empty() {
		return MatchResult{Score: -1}, ErrEmptyTemplate
	}
	fb, tb := frame.Bounds(), tmpl.Bounds()
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return MatchResult{Score: -1}, ErrInvalidTemplateSize
	}
	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return MatchResult{Score: -1}, err
	}
	defer src.Close()
	t, err := gocv.ImageToMatRGB(toRGBA(tmpl))
	if err != nil {
		return MatchResult{Score: -1}, err
	}
	defer t.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	if err := gocv.MatchTemplate(src, t, &result, gocv.TmCcoeffNormed, mask); err != nil {
		return MatchResult{Score: -1}, err
	}
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	res := MatchResult{
		TopLeft: maxLoc.Add(fb.Min),
		Size:    image.Pt(tb.Dx(), tb.Dy()),
		Score:   float64(maxVal),
	}
	res.Center = res.TopLeft.Add(image.Pt(tb.Dx()/2, tb.Dy()/2))
	res.Found = res.Score >= threshold
	return res, nil
}
