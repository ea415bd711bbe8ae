package core

import (
	"fmt"
	"math/rand"
	"time"
)

// Distribution produces i.i.d. draws from a continuous value distribution.
// Draws consume the supplied stream, which the caller owns; the Monte Carlo
// runner passes its single seeded stream here so sampling stays reproducible.
type Distribution interface {
	// Draw returns n independent samples using r as the randomness source.
	Draw(r *rand.Rand, n int) []float64
}

// RandConsumer is implemented by policy rules that draw randomness of their
// own (reporting noise, tie-breaking). The Monte Carlo runner injects its
// seeded stream into such rules so one top-level seed governs every draw in
// a run.
type RandConsumer interface {
	SetRand(r *rand.Rand)
}

// Uniform draws uniformly from [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

func (u Uniform) Draw(r *rand.Rand, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = u.Min + r.Float64()*(u.Max-u.Min)
	}
	return samples
}

// Normal draws from a normal distribution with the given mean and standard
// deviation.
type Normal struct {
	Mean   float64
	StdDev float64
}

func (d Normal) Draw(r *rand.Rand, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = d.Mean + r.NormFloat64()*d.StdDev
	}
	return samples
}

// SampleMessageSet generates a population of numMessages sender messages with
// ids 1..numMessages in order. Sender values are drawn first, then recipient
// values, each as an independent batch from its own distribution; the two
// draws are not correlated per sender.
//
// A nil stream gets a time-seeded one, the same fallback the ranking rules
// use when no source is injected.
func SampleMessageSet(r *rand.Rand, numMessages int, senderValueDist, recipientValueDist Distribution) ([]SenderMessage, error) {
	if numMessages < 1 {
		return nil, fmt.Errorf("%w: numMessages must be at least 1, got %d", ErrInvalidParameter, numMessages)
	}
	if senderValueDist == nil || recipientValueDist == nil {
		return nil, fmt.Errorf("%w: both value distributions are required", ErrInvalidParameter)
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	senderValues := senderValueDist.Draw(r, numMessages)
	recipientValues := recipientValueDist.Draw(r, numMessages)

	messages := make([]SenderMessage, numMessages)
	for i := range messages {
		messages[i] = SenderMessage{
			MessageID:      i + 1,
			SenderValue:    senderValues[i],
			RecipientValue: recipientValues[i],
		}
	}
	return messages, nil
}
