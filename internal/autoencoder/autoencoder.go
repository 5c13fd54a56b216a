// Package autoencoder implements C2: a dense 18->3 sigmoid encoder and
// 3->18 sigmoid decoder with online, error-driven weight nudges
// (spec.md §4.2). Vector/matrix math is done with gonum, grounded on
// o9nn-echo.go's use of gonum.org/v1/gonum for its own connectionist
// components.
package autoencoder

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand"
	"os"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cerebrumlux/cognition/internal/cerr"
	"github.com/cerebrumlux/cognition/internal/model"
)

const (
	inputDim  = model.StatFeatureLen
	latentDim = model.LatentLen

	// RMSE above this threshold triggers an online weight nudge.
	DefaultRMSEThreshold = 0.1
	weightClip           = 1.0
)

// layer is a single dense sigmoid layer: y = sigmoid(W*x + b).
type layer struct {
	w *mat.Dense // rows x cols
	b *mat.VecDense
}

func newLayer(rows, cols int, rng *rand.Rand) *layer {
	w := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			w.Set(r, c, (rng.Float64()*2-1)*0.5) // uniform [-0.5, 0.5]
		}
	}
	b := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		b.SetVec(r, (rng.Float64()*2-1)*0.5)
	}
	return &layer{w: w, b: b}
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func (l *layer) forward(x *mat.VecDense) *mat.VecDense {
	rows, _ := l.w.Dims()
	y := mat.NewVecDense(rows, nil)
	y.MulVec(l.w, x)
	out := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		out.SetVec(r, sigmoid(y.AtVec(r)+l.b.AtVec(r)))
	}
	return out
}

// Autoencoder is C2's dense 18->3->18 network with online adaptation.
// Internally synchronized: encode/decode calls can race with Save/Load
// from the orchestrator's autosave timer.
type Autoencoder struct {
	mu      sync.RWMutex
	encoder *layer // 3 x 18
	decoder *layer // 18 x 3

	rmseThreshold float64
}

// New builds a freshly initialized 18->3->18 autoencoder with weights
// uniform in [-0.5, 0.5] (spec §4.2).
func New(seed int64) *Autoencoder {
	rng := rand.New(rand.NewSource(seed))
	return &Autoencoder{
		encoder:       newLayer(latentDim, inputDim, rng),
		decoder:       newLayer(inputDim, latentDim, rng),
		rmseThreshold: DefaultRMSEThreshold,
	}
}

// SetRMSEThreshold overrides the default 0.1 adaptation threshold.
func (a *Autoencoder) SetRMSEThreshold(t float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rmseThreshold = t
}

// Encode maps an 18-d feature vector to its 3-d latent code. The input
// is a fixed-length array, so a length mismatch cannot reach this call;
// the returned error is always nil.
func (a *Autoencoder) Encode(x [model.StatFeatureLen]float32) ([model.LatentLen]float32, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.encodeLocked(x)
}

func (a *Autoencoder) encodeLocked(x [model.StatFeatureLen]float32) ([model.LatentLen]float32, error) {
	var z [model.LatentLen]float32
	xv := toVec(x[:])
	y := a.encoder.forward(xv)
	for i := 0; i < latentDim; i++ {
		z[i] = float32(y.AtVec(i))
	}
	return z, nil
}

// Decode maps a 3-d latent code back to an 18-d reconstruction.
func (a *Autoencoder) Decode(z [model.LatentLen]float32) [model.StatFeatureLen]float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.decodeLocked(z)
}

func (a *Autoencoder) decodeLocked(z [model.LatentLen]float32) [model.StatFeatureLen]float32 {
	var xhat [model.StatFeatureLen]float32
	zv := toVec(z[:])
	y := a.decoder.forward(zv)
	for i := 0; i < inputDim; i++ {
		xhat[i] = float32(y.AtVec(i))
	}
	return xhat
}

// Reconstruct runs x through the full encode/decode round trip.
func (a *Autoencoder) Reconstruct(x [model.StatFeatureLen]float32) [model.StatFeatureLen]float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	z, _ := a.encodeLocked(x)
	return a.decodeLocked(z)
}

// ReconstructionError is the RMSE between x and its reconstruction x̂.
func ReconstructionError(x, xhat [model.StatFeatureLen]float32) float32 {
	var sq float64
	for i := range x {
		d := float64(x[i] - xhat[i])
		sq += d * d
	}
	return float32(math.Sqrt(sq / float64(len(x))))
}

// AdjustWeightsOnError takes one gradient-signed step of magnitude
// lr*rmse on both layers when rmse exceeds the configured threshold,
// clipped to [-1,1] (spec §4.2). Below threshold, weights are untouched.
func (a *Autoencoder) AdjustWeightsOnError(x [model.StatFeatureLen]float32, lr float64) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	z, _ := a.encodeLocked(x)
	xhat := a.decodeLocked(z)
	rmse := ReconstructionError(x, xhat)
	if float64(rmse) <= a.rmseThreshold {
		return rmse
	}

	step := lr * float64(rmse)

	// Decoder: row r produces xhat[r], so the sign of (x[r]-xhat[r]) tells
	// us which direction reduces that row's error.
	decRows, decCols := a.decoder.w.Dims()
	for r := 0; r < decRows; r++ {
		errSign := 1.0
		if xhat[r] > x[r] {
			errSign = -1.0
		}
		for c := 0; c < decCols; c++ {
			a.decoder.w.Set(r, c, clip(a.decoder.w.At(r, c)+errSign*step))
		}
		a.decoder.b.SetVec(r, clip(a.decoder.b.AtVec(r)+errSign*step))
	}

	// Encoder: no direct target for the latent code, so every encoder
	// weight takes a step in the direction of the mean reconstruction
	// error sign, scaled the same way as the decoder's step.
	meanErrSign := 1.0
	var sum float64
	for i := range x {
		sum += float64(x[i] - xhat[i])
	}
	if sum < 0 {
		meanErrSign = -1.0
	}
	encRows, encCols := a.encoder.w.Dims()
	for r := 0; r < encRows; r++ {
		for c := 0; c < encCols; c++ {
			a.encoder.w.Set(r, c, clip(a.encoder.w.At(r, c)+meanErrSign*step))
		}
		a.encoder.b.SetVec(r, clip(a.encoder.b.AtVec(r)+meanErrSign*step))
	}
	return rmse
}

// Step performs one full C1-driven tick: encode, decode, measure RMSE,
// adapt if above threshold, and return the latent used downstream.
func (a *Autoencoder) Step(x [model.StatFeatureLen]float32) ([model.LatentLen]float32, float32, error) {
	z, err := a.Encode(x)
	if err != nil {
		return [model.LatentLen]float32{}, 0, err
	}
	rmse := a.AdjustWeightsOnError(x, 0.05)
	return z, rmse, nil
}

func clip(v float64) float64 {
	if v > weightClip {
		return weightClip
	}
	if v < -weightClip {
		return -weightClip
	}
	return v
}

func toVec(xs []float32) *mat.VecDense {
	v := mat.NewVecDense(len(xs), nil)
	for i, x := range xs {
		v.SetVec(i, float64(x))
	}
	return v
}

// Save persists dims then (weights,biases) per layer as little-endian f32
// (spec §6 on-disk layout for autoencoder.bin).
func (a *Autoencoder) Save(path string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return cerr.Wrap(cerr.StorageFailure, "autoencoder.Save", "create file", err)
	}
	defer f.Close()

	w := func(vals ...int32) error {
		for _, v := range vals {
			if err := binary.Write(f, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := w(int32(inputDim), int32(latentDim)); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "autoencoder.Save", "write dims", err)
	}
	if err := writeLayer(f, a.encoder); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "autoencoder.Save", "write encoder", err)
	}
	if err := writeLayer(f, a.decoder); err != nil {
		return cerr.Wrap(cerr.StorageFailure, "autoencoder.Save", "write decoder", err)
	}
	return nil
}

func writeLayer(w io.Writer, l *layer) error {
	rows, cols := l.w.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if err := binary.Write(w, binary.LittleEndian, float32(l.w.At(r, c))); err != nil {
				return err
			}
		}
	}
	for r := 0; r < rows; r++ {
		if err := binary.Write(w, binary.LittleEndian, float32(l.b.AtVec(r))); err != nil {
			return err
		}
	}
	return nil
}

func readLayer(r io.Reader, rows, cols int) (*layer, error) {
	w := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			w.Set(i, j, float64(v))
		}
	}
	b := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		var v float32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		b.SetVec(i, float64(v))
	}
	return &layer{w: w, b: b}, nil
}

// Load reads the autoencoder.bin layout. On a dims mismatch or a
// truncated layer the file is discarded and the receiver reinitializes
// with fresh random weights, reporting that through the returned bool so
// the caller can log a warning (spec §4.2).
func (a *Autoencoder) Load(path string) (reinitialized bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, cerr.Wrap(cerr.ResourceUnavailable, "autoencoder.Load", "open file", err)
	}
	defer f.Close()

	reinit := func() (bool, error) {
		fresh := New(1)
		a.mu.Lock()
		a.encoder = fresh.encoder
		a.decoder = fresh.decoder
		a.mu.Unlock()
		return true, nil
	}

	var in, lat int32
	if err := binary.Read(f, binary.LittleEndian, &in); err != nil {
		return false, cerr.Wrap(cerr.StorageFailure, "autoencoder.Load", "read input dim", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &lat); err != nil {
		return false, cerr.Wrap(cerr.StorageFailure, "autoencoder.Load", "read latent dim", err)
	}
	if int(in) != inputDim || int(lat) != latentDim {
		return reinit()
	}

	enc, err := readLayer(f, latentDim, inputDim)
	if err != nil {
		return reinit()
	}
	dec, err := readLayer(f, inputDim, latentDim)
	if err != nil {
		return reinit()
	}

	a.mu.Lock()
	a.encoder = enc
	a.decoder = dec
	a.mu.Unlock()
	return false, nil
}
