// Package neural provides the policies that turn observations into actions.
package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/pthm-cable/hummingbird/agent"
)

// Network dimensions (compile-time constants for array sizing).
const (
	NumInputs  = agent.ObservationSize
	NumHidden  = 16
	NumOutputs = agent.ActionSize // force x, y, z, pitch, yaw
)

// FFNN is a simple two-layer feedforward neural network.
type FFNN struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases
}

// NewFFNN creates a randomly initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	// Xavier initialization
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}
	return nn
}

// Forward computes the network output. Every output is in [-1, 1].
func (nn *FFNN) Forward(inputs []float32) [NumOutputs]float32 {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var outputs [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = tanh(sum)
	}
	return outputs
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	W1 []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float32 `json:"b1"` // [NumHidden]
	W2 []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		W1: make([]float32, NumHidden*NumInputs),
		B1: make([]float32, NumHidden),
		W2: make([]float32, NumOutputs*NumHidden),
		B2: make([]float32, NumOutputs),
	}

	for i := 0; i < NumHidden; i++ {
		copy(bw.W1[i*NumInputs:(i+1)*NumInputs], nn.W1[i][:])
	}
	copy(bw.B1, nn.B1[:])

	for i := 0; i < NumOutputs; i++ {
		copy(bw.W2[i*NumHidden:(i+1)*NumHidden], nn.W2[i][:])
	}
	copy(bw.B2, nn.B2[:])

	return bw
}

// UnmarshalWeights restores network weights from flattened form.
func (nn *FFNN) UnmarshalWeights(bw BrainWeights) error {
	if len(bw.W1) != NumHidden*NumInputs || len(bw.B1) != NumHidden ||
		len(bw.W2) != NumOutputs*NumHidden || len(bw.B2) != NumOutputs {
		return fmt.Errorf("weights shape mismatch: want %dx%d -> %d", NumInputs, NumHidden, NumOutputs)
	}

	for i := 0; i < NumHidden; i++ {
		copy(nn.W1[i][:], bw.W1[i*NumInputs:(i+1)*NumInputs])
	}
	copy(nn.B1[:], bw.B1)

	for i := 0; i < NumOutputs; i++ {
		copy(nn.W2[i][:], bw.W2[i*NumHidden:(i+1)*NumHidden])
	}
	copy(nn.B2[:], bw.B2)

	return nil
}

// SaveWeights writes the network weights to a JSON file.
func (nn *FFNN) SaveWeights(path string) error {
	data, err := json.MarshalIndent(nn.MarshalWeights(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}
	return nil
}

// LoadFFNN reads a network from a JSON weights file.
func LoadFFNN(path string) (*FFNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}
	nn := &FFNN{}
	if err := nn.UnmarshalWeights(bw); err != nil {
		return nil, err
	}
	return nn, nil
}
