package rx

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// NewBlockInput reads blocks of the given number of I/Q samples from the given reader in the background.
// If interval is greater than 0, the blocks are delivered in this interval, otherwise as fast as the reader provides them.
func NewBlockInput(in io.ReadCloser, blockSize int, interval time.Duration) *BlockInput {
	result := &BlockInput{
		in:    in,
		bytes: make(chan []byte, 1),
		done:  make(chan struct{}),
	}

	go result.run(blockSize, interval)

	return result
}

// BlockInput provides blocks of raw samples through a channel. The channel is closed when the reader is exhausted.
type BlockInput struct {
	in    io.ReadCloser
	bytes chan []byte
	done  chan struct{}
	once  sync.Once
}

func (i *BlockInput) run(blockSize int, interval time.Duration) {
	defer close(i.bytes)
	defer log.Debug("block input shutdown")

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		nextBlock := make([]byte, blockSize*2)
		_, err := io.ReadFull(i.in, nextBlock)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			log.Info("end of input")
			return
		}
		if err != nil {
			select {
			case <-i.done:
			default:
				log.Error("reading samples failed", "err", errors.Wrap(err, "cannot read block"))
			}
			return
		}

		if tick != nil {
			select {
			case <-tick:
			case <-i.done:
				return
			}
		}

		select {
		case i.bytes <- nextBlock:
		case <-i.done:
			return
		}
	}
}

// Samples delivers the blocks of raw samples.
func (i *BlockInput) Samples() <-chan []byte {
	return i.bytes
}

// Close stops reading and closes the underlying reader.
func (i *BlockInput) Close() error {
	var err error
	i.once.Do(func() {
		close(i.done)
		err = i.in.Close()
	})
	return err
}
