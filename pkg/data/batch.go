package data

// Sample represents a single data point.
type Sample struct {
	X []float64
	Y float64
}

// Batch represents a collection of data points.
type Batch struct {
	X [][]float64
	Y []float64
}

// StreamRows sends the rows of X and y selected by order through a channel,
// closing it once every row was sent or done is closed.
func StreamRows(X [][]float64, y []float64, order []int, done <-chan struct{}) <-chan Sample {
	out := make(chan Sample)
	go func() {
		defer close(out)
		for _, i := range order {
			select {
			case <-done:
				return
			case out <- Sample{X: X[i], Y: y[i]}:
			}
		}
	}()
	return out
}

// Batcher reads from a Sample channel and emits mini-batches via a channel.
// The final batch may be smaller than batchSize. Close the returned done chan
// to stop early.
func Batcher(in <-chan Sample, batchSize int, out chan<- Batch) (done chan struct{}) {
	done = make(chan struct{})
	if batchSize < 1 {
		batchSize = 1
	}

	go func() {
		defer close(out)

		var X [][]float64
		var Y []float64

		for {
			select {
			case <-done:
				return

			case s, ok := <-in:
				if !ok {
					if len(Y) > 0 {
						select {
						case out <- Batch{X: X, Y: Y}:
						case <-done:
						}
					}
					return
				}

				X = append(X, s.X)
				Y = append(Y, s.Y)

				if len(Y) == batchSize {
					select {
					case out <- Batch{X: X, Y: Y}:
					case <-done:
						return
					}
					X = nil
					Y = nil
				}
			}
		}
	}()

	return done
}
