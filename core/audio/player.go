package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

const (
	channelCount   = 2
	bytesPerSample = 4
	pendingBlocks  = 8
)

// NewPlayer opens the default audio output with the given sample rate.
func NewPlayer(sampleRate int) (*Player, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot open audio output")
	}
	<-ready

	reader, writer := io.Pipe()
	result := &Player{
		reader: reader,
		writer: writer,
		blocks: make(chan []byte, pendingBlocks),
		done:   make(chan struct{}),
	}
	result.player = context.NewPlayer(reader)
	result.player.Play()

	result.wait.Add(1)
	go result.run()

	return result, nil
}

// Player plays stereo audio through the sound card.
type Player struct {
	player    *oto.Player
	reader    *io.PipeReader
	writer    *io.PipeWriter
	blocks    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wait      sync.WaitGroup
}

func (p *Player) run() {
	defer p.wait.Done()
	for {
		select {
		case block := <-p.blocks:
			_, err := p.writer.Write(block)
			if err == io.ErrClosedPipe {
				return
			}
			if err != nil {
				log.Error("cannot write audio", "err", err)
				return
			}
		case <-p.done:
			return
		}
	}
}

// Play the given audio. Play does not block, if the output does not keep up, the audio is dropped.
func (p *Player) Play(left, right []float32) error {
	select {
	case <-p.done:
		return errors.New("player closed")
	default:
	}

	block := interleaveFloat32LE(left, right)
	select {
	case p.blocks <- block:
	default:
		log.Warn("Player.Play hangs")
	}
	return nil
}

// Close the audio output.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.writer.Close()
		p.wait.Wait()
		err = p.player.Close()
		p.reader.Close()
	})
	return err
}

// interleaveFloat32LE encodes the channels as interleaved little endian 32-bit floats.
func interleaveFloat32LE(left, right []float32) []byte {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	result := make([]byte, n*channelCount*bytesPerSample)
	for i := 0; i < n; i++ {
		offset := i * channelCount * bytesPerSample
		binary.LittleEndian.PutUint32(result[offset:], math.Float32bits(clamp(left[i])))
		binary.LittleEndian.PutUint32(result[offset+bytesPerSample:], math.Float32bits(clamp(right[i])))
	}
	return result
}
