package capture

import (
	"errors"
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"
	"time"
)

var (
	// ErrEmptyTemplate is returned for a nil or zero-area template or frame.
	ErrEmptyTemplate = errors.New("capture: empty template")
	// ErrInvalidTemplateSize is returned when the template does not fit inside the frame.
	ErrInvalidTemplateSize = errors.New("capture: template larger than frame")
)

// flatVariance is the largest channel-summed window variance (in 8-bit
// units squared) still treated as a uniform window. Any real difference
// between integer pixel values exceeds it.
const flatVariance = 0.5

// framePrecomp stores interleaved RGB values of a frame alongside
// summed-area tables so window sums and variances are O(1) queries.
type framePrecomp struct {
	pix        []float32    // interleaved r,g,b per pixel (length W*H*3)
	integral   [3][]float64 // per-channel summed-area tables, (W+1)*(H+1)
	integralSq []float64    // summed-area table of squares, all channels
	W, H       int
}

// templatePrecomp caches the zero-mean interleaved template and its statistics.
type templatePrecomp struct {
	centered []float32 // t - mean(t) per channel, interleaved
	mean     [3]float64
	sumSq    float64 // sum of centered squares over all channels
	W, H     int
}

// NCCOptions configures normalized cross-correlation template matching.
type NCCOptions struct {
	Stride      int  // Coarse stride for scanning (default 1)
	Refine      bool // If true and Stride>1, do a refinement pass around best window
	Workers     int  // Parallel row bands (default runtime.NumCPU())
	DebugTiming bool // If true, measure elapsed time
}

// NCCMatcher scores alignments with the normalized correlation coefficient
// computed over the three colour channels.
type NCCMatcher struct {
	Opts NCCOptions
}

// NewNCCMatcher returns a matcher with the given options.
func NewNCCMatcher(opts NCCOptions) *NCCMatcher { return &NCCMatcher{Opts: opts} }

// Name implements Matcher.
func (m *NCCMatcher) Name() string { return "ncc" }

// Match locates tmpl inside frame and reports whether the best score clears threshold.
func (m *NCCMatcher) Match(frame *image.RGBA, tmpl image.Image, threshold float64) (MatchResult, error) {
	return MatchTemplateNCC(frame, tmpl, threshold, m.Opts)
}

// MatchTemplateNCC computes the correlation surface of tmpl over frame and
// returns its global maximum. Equal scores resolve to the first alignment in
// row-major order.
func MatchTemplateNCC(frame *image.RGBA, tmpl image.Image, threshold float64, opts NCCOptions) (MatchResult, error) {
	start := time.Now()
	if frame == nil || tmpl == nil {
		return MatchResult{Score: -1}, ErrEmptyTemplate
	}
	fb, tb := frame.Bounds(), tmpl.Bounds()
	if tb.Dx() == 0 || tb.Dy() == 0 || fb.Dx() == 0 || fb.Dy() == 0 {
		return MatchResult{Score: -1}, ErrEmptyTemplate
	}
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return MatchResult{Score: -1}, ErrInvalidTemplateSize
	}
	if opts.Stride <= 0 {
		opts.Stride = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	pre := buildFramePrecomp(frame)
	pc := buildTemplatePrecomp(tmpl)
	best := scanNCC(pre, pc, opts.Stride, image.Rect(0, 0, pre.W-pc.W+1, pre.H-pc.H+1), opts.Workers)
	if opts.Refine && opts.Stride > 1 {
		area := image.Rect(best.x-opts.Stride, best.y-opts.Stride, best.x+opts.Stride+1, best.y+opts.Stride+1).
			Intersect(image.Rect(0, 0, pre.W-pc.W+1, pre.H-pc.H+1))
		if refined := scanNCC(pre, pc, 1, area, 1); refined.better(best) {
			best = refined
		}
	}

	res := MatchResult{
		TopLeft: image.Pt(best.x+fb.Min.X, best.y+fb.Min.Y),
		Size:    image.Pt(pc.W, pc.H),
		Score:   best.score,
	}
	res.Center = res.TopLeft.Add(image.Pt(pc.W/2, pc.H/2))
	res.Found = best.score >= threshold
	if opts.DebugTiming {
		res.Dur = time.Since(start)
	}
	return res, nil
}

type candidate struct {
	x, y  int
	score float64
}

// better reports whether c beats o: higher score, then earlier row-major position.
func (c candidate) better(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	if c.y != o.y {
		return c.y < o.y
	}
	return c.x < o.x
}

// scanNCC evaluates every stride-aligned top-left position inside area
// (exclusive max) and returns the best candidate.
func scanNCC(pre *framePrecomp, pc *templatePrecomp, stride int, area image.Rectangle, workers int) candidate {
	best := candidate{score: -2}
	if area.Empty() {
		return best
	}
	rows := make([]int, 0, area.Dy()/stride+1)
	for y := area.Min.Y; y < area.Max.Y; y += stride {
		rows = append(rows, y)
	}
	if workers > len(rows) {
		workers = len(rows)
	}
	results := make([]candidate, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			local := candidate{score: -2}
			// Interleave rows so workers see similar amounts of work.
			for i := w; i < len(rows); i += workers {
				y := rows[i]
				for x := area.Min.X; x < area.Max.X; x += stride {
					c := candidate{x: x, y: y, score: scoreAt(pre, pc, x, y)}
					if c.better(local) {
						local = c
					}
				}
			}
			results[w] = local
		}(w)
	}
	wg.Wait()
	for _, c := range results {
		if c.better(best) {
			best = c
		}
	}
	return best
}

// scoreAt returns the correlation coefficient of the template placed with
// its top-left corner at (x,y).
func scoreAt(pre *framePrecomp, pc *templatePrecomp, x, y int) float64 {
	w, h := pc.W, pc.H
	n := float64(w * h)
	var sums [3]float64
	var sq float64
	for c := 0; c < 3; c++ {
		sums[c] = rectSum(pre.integral[c], pre.W, x, y, x+w, y+h)
	}
	sq = rectSum(pre.integralSq, pre.W, x, y, x+w, y+h)
	varF := sq - (sums[0]*sums[0]+sums[1]*sums[1]+sums[2]*sums[2])/n

	if pc.sumSq <= flatVariance {
		// Uniform template: only an identical uniform window correlates.
		if varF > flatVariance {
			return 0
		}
		for c := 0; c < 3; c++ {
			if math.Abs(sums[c]/n-pc.mean[c]) > 0.5 {
				return 0
			}
		}
		return 1
	}
	if varF <= flatVariance {
		return 0
	}

	// Template is zero-mean per channel, so the frame mean drops out of the numerator.
	var numer float64
	rowLen := w * 3
	for ty := 0; ty < h; ty++ {
		fOff := ((y+ty)*pre.W + x) * 3
		frow := pre.pix[fOff : fOff+rowLen]
		trow := pc.centered[ty*rowLen : (ty+1)*rowLen]
		var acc float32
		for i, t := range trow {
			acc += frow[i] * t
		}
		numer += float64(acc)
	}
	score := numer / math.Sqrt(varF*pc.sumSq)
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score
}

// buildFramePrecomp copies frame pixels into float planes and builds the
// summed-area tables. Tables carry a zero top row and left column.
func buildFramePrecomp(frame *image.RGBA) *framePrecomp {
	b := frame.Bounds()
	W, H := b.Dx(), b.Dy()
	p := &framePrecomp{
		pix:        make([]float32, W*H*3),
		integralSq: make([]float64, (W+1)*(H+1)),
		W:          W,
		H:          H,
	}
	for c := 0; c < 3; c++ {
		p.integral[c] = make([]float64, (W+1)*(H+1))
	}
	stride := W + 1
	for y := 0; y < H; y++ {
		src := frame.Pix[frame.PixOffset(b.Min.X, b.Min.Y+y):]
		var row [3]float64
		var rowSq float64
		for x := 0; x < W; x++ {
			off := (y*W + x) * 3
			for c := 0; c < 3; c++ {
				v := float64(src[x*4+c])
				p.pix[off+c] = float32(v)
				row[c] += v
				rowSq += v * v
			}
			i := (y+1)*stride + x + 1
			for c := 0; c < 3; c++ {
				p.integral[c][i] = p.integral[c][i-stride] + row[c]
			}
			p.integralSq[i] = p.integralSq[i-stride] + rowSq
		}
	}
	return p
}

// buildTemplatePrecomp converts tmpl to RGBA and centers each channel on its mean.
func buildTemplatePrecomp(tmpl image.Image) *templatePrecomp {
	rgba := toRGBA(tmpl)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	n := float64(w * h)
	pc := &templatePrecomp{centered: make([]float32, w*h*3), W: w, H: h}
	var sums [3]float64
	for y := 0; y < h; y++ {
		src := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				sums[c] += float64(src[x*4+c])
			}
		}
	}
	for c := 0; c < 3; c++ {
		pc.mean[c] = sums[c] / n
	}
	for y := 0; y < h; y++ {
		src := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			off := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				d := float64(src[x*4+c]) - pc.mean[c]
				pc.centered[off+c] = float32(d)
				pc.sumSq += d * d
			}
		}
	}
	return pc
}

// toRGBA returns img as *image.RGBA, converting when necessary.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// rectSum returns the sum over [x0,x1) x [y0,y1) from a summed-area table
// with a zero border, row width W+1.
func rectSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	s := W + 1
	return I[y1*s+x1] - I[y0*s+x1] - I[y1*s+x0] + I[y0*s+x0]
}

var _ Matcher = (*NCCMatcher)(nil)
