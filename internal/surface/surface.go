// Package surface is the headless drawing pad: it turns pointer events into
// strokes on a raster bitmap and, once input has been quiet for the debounce
// delay, sends the bitmap to a recognizer and clears it.
package surface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"DigitPad/internal/state"

	"github.com/gogpu/gg"
)

type Background int

const (
	BackgroundWhite Background = iota
	BackgroundTransparent
)

func (b Background) String() string {
	if b == BackgroundTransparent {
		return "transparent"
	}
	return "white"
}

// ParseBackground accepts "white" or "transparent".
func ParseBackground(s string) (Background, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "white":
		return BackgroundWhite, nil
	case "transparent":
		return BackgroundTransparent, nil
	default:
		return BackgroundWhite, fmt.Errorf("unknown background %q", s)
	}
}

// Options configures a Surface. Zero fields fall back to DefaultOptions.
type Options struct {
	Width          int
	Height         int
	StrokeWidth    float64
	Debounce       time.Duration
	Background     Background
	RequireContent bool // skip the submit when nothing was drawn
	RequestTimeout time.Duration
	Scheduler      Scheduler
}

func DefaultOptions() Options {
	return Options{
		Width:          280,
		Height:         280,
		StrokeWidth:    5,
		Debounce:       time.Second,
		Background:     BackgroundWhite,
		RequireContent: true,
		RequestTimeout: 10 * time.Second,
		Scheduler:      RealScheduler,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = def.StrokeWidth
	}
	if o.Debounce <= 0 {
		o.Debounce = def.Debounce
	}
	if o.Scheduler == nil {
		o.Scheduler = def.Scheduler
	}
	return o
}

// Recognizer turns an encoded PNG into a label.
type Recognizer interface {
	Recognize(ctx context.Context, id string, png []byte) (string, error)
}

var errNoRecognizer = errors.New("no recognizer configured")

type Surface struct {
	opts       Options
	dc         *gg.Context
	recognizer Recognizer
	reporter   Reporter

	mu      sync.Mutex
	prev    state.Point
	cur     state.Point
	drawing bool
	empty   bool
	strokes []state.Stroke
	timer   Timer
	gen     uint64

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	OnChange     func()                 // bitmap changed; called outside the lock
	OnSubmission func(state.Submission) // a recognizer request completed
}

// New creates a blank surface. rep may be nil.
func New(opts Options, rec Recognizer, rep Reporter) *Surface {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Surface{
		opts:       opts,
		dc:         gg.NewContext(opts.Width, opts.Height),
		recognizer: rec,
		reporter:   rep,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	return s
}

func (s *Surface) Options() Options { return s.opts }

func (s *Surface) Size() (int, int) { return s.opts.Width, s.opts.Height }

// PointerDown starts a stroke and cancels a pending submit so a resumed
// drawing is not cleared underneath the user.
func (s *Surface) PointerDown() {
	s.mu.Lock()
	s.drawing = true
	s.cancelLocked()
	s.strokes = append(s.strokes, s.newStroke())
	s.mu.Unlock()

	s.report(StatusDrawing)
}

// PointerMove records the new position and, while drawing, strokes a segment
// from the previous one.
func (s *Surface) PointerMove(x, y float64) {
	if s.moveTo(state.Point{X: x, Y: y}) {
		s.changed()
	}
}

// moveTo reports whether a segment was drawn.
func (s *Surface) moveTo(pt state.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prev = s.cur
	s.cur = pt
	if !s.drawing {
		return false
	}
	s.empty = false
	s.strokeSegment(s.prev, s.cur)
	st := s.openStrokeLocked()
	if len(st.Points) == 0 {
		st.Points = append(st.Points, s.prev)
	}
	st.Points = append(st.Points, s.cur)
	return true
}

// openStrokeLocked returns the stroke being drawn. A clear in the middle of a
// stroke drops the records, so the rest of the stroke starts a new one.
func (s *Surface) openStrokeLocked() *state.Stroke {
	if len(s.strokes) == 0 {
		s.strokes = append(s.strokes, s.newStroke())
	}
	return &s.strokes[len(s.strokes)-1]
}

func (s *Surface) newStroke() state.Stroke {
	return state.Stroke{ID: state.NewID(), Width: s.opts.StrokeWidth}
}

// PointerUp ends the stroke and (re)starts the debounce timer.
func (s *Surface) PointerUp() {
	s.mu.Lock()
	s.drawing = false
	if n := len(s.strokes); n > 0 && len(s.strokes[n-1].Points) == 0 {
		s.strokes = s.strokes[:n-1]
	}
	s.armLocked()
	s.mu.Unlock()

	s.report(StatusFinished)
}

// PointerLeave behaves exactly like PointerUp.
func (s *Surface) PointerLeave() {
	s.PointerUp()
}

// Flush cancels the debounce timer and runs the submit-and-clear step now.
func (s *Surface) Flush() {
	s.mu.Lock()
	s.cancelLocked()
	s.submitAndClear()
}

// Submit encodes the current bitmap and sends it without clearing. The
// request runs in the background; use Wait to block until it is done.
func (s *Surface) Submit(ctx context.Context) error {
	s.mu.Lock()
	sub, err := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		s.report(ErrorStatus(err))
		return err
	}
	s.send(ctx, sub)
	return nil
}

// Clear resets the bitmap to its blank baseline.
func (s *Surface) Clear() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.changed()
}

// Wait blocks until every in-flight request has completed.
func (s *Surface) Wait() {
	s.inflight.Wait()
}

// Close drops the pending timer and cancels in-flight requests.
func (s *Surface) Close() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
	s.cancel()
}

func (s *Surface) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.empty
}

func (s *Surface) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// Pending reports whether a debounced submit is scheduled.
func (s *Surface) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Image returns a copy of the bitmap.
func (s *Surface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.Image()
}

func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.EncodePNG(w)
}

// Strokes returns the strokes drawn since the last clear.
func (s *Surface) Strokes() []state.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return state.CloneStrokes(s.strokes)
}

func (s *Surface) strokeSegment(a, b state.Point) {
	s.dc.SetRGB(0, 0, 0)
	s.dc.SetLineWidth(s.opts.StrokeWidth)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.MoveTo(a.X, a.Y)
	s.dc.LineTo(b.X, b.Y)
	if err := s.dc.Stroke(); err != nil {
		log.Printf("[PAD] stroke failed: %v", err)
	}
}

func (s *Surface) clearLocked() {
	s.dc.ClearPath()
	if s.opts.Background == BackgroundTransparent {
		s.dc.Clear()
	} else {
		s.dc.ClearWithColor(gg.White)
	}
	s.empty = true
	s.strokes = nil
}

func (s *Surface) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// a callback that already started firing sees a stale generation
	s.gen++
}

func (s *Surface) armLocked() {
	s.cancelLocked()
	gen := s.gen
	s.timer = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() { s.fire(gen) })
}

func (s *Surface) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.gen++
	s.submitAndClear()
}

// submitAndClear must be entered with s.mu held; it releases the lock.
func (s *Surface) submitAndClear() {
	if s.opts.RequireContent && s.empty {
		s.mu.Unlock()
		return
	}
	sub, err := s.snapshotLocked()
	s.clearLocked()
	s.mu.Unlock()

	s.changed()
	if err != nil {
		s.report(ErrorStatus(err))
		return
	}
	s.send(s.ctx, sub)
}

func (s *Surface) snapshotLocked() (state.Submission, error) {
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return state.Submission{}, fmt.Errorf("encode canvas: %w", err)
	}
	return state.Submission{
		ID:      state.NewID(),
		Seq:     state.NextSeq(),
		Time:    time.Now(),
		Strokes: state.CloneStrokes(s.strokes),
		PNG:     buf.Bytes(),
	}, nil
}

func (s *Surface) send(ctx context.Context, sub state.Submission) {
	s.report(StatusRecognizing)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		reqCtx := ctx
		if s.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
			defer cancel()
		}

		var (
			label string
			err   = errNoRecognizer
		)
		if s.recognizer != nil {
			label, err = s.recognizer.Recognize(reqCtx, sub.ID, sub.PNG)
		}
		if err != nil {
			log.Printf("[PAD] Submission %s failed: %v", sub.ID, err)
			sub.Error = ErrorStatus(err)
			s.report(sub.Error)
		} else {
			sub.Label = label
			s.report(Recognized(label))
		}
		if s.OnSubmission != nil {
			s.OnSubmission(sub)
		}
	}()
}

func (s *Surface) report(status string) {
	if s.reporter != nil {
		s.reporter.Report(status)
	}
}

func (s *Surface) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
