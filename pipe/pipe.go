//go:build unix

// Package pipe adapts a named FIFO on the filesystem into a pair of Salis
// channel hooks, letting several simulations trade instructions through the
// same pipe file.
package pipe

import (
	"fmt"
	"os"
	"syscall"

	"github.com/salis-alife/salis/salis"
)

// Pipe is an open FIFO usable as both ends of the common channel.
type Pipe struct {
	file *os.File
}

// Open creates the FIFO if needed and opens it read-write. The file is
// opened in non-blocking mode, or simulations would stall whenever the pipe
// runs empty.
func Open(path string) (*Pipe, error) {
	if err := syscall.Mkfifo(path, 0666); err != nil && !os.IsExist(err) {
		return nil, fmt.Errorf("failed to create fifo %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open fifo %s: %w", path, err)
	}
	return &Pipe{file: file}, nil
}

// Close closes this end of the pipe. The FIFO file itself stays around until
// deleted by hand.
func (p *Pipe) Close() error {
	return p.file.Close()
}

// Sender returns a channel hook that writes one instruction byte per SEND.
// A full pipe silently drops the byte.
func (p *Pipe) Sender() salis.Sender {
	return func(inst salis.Instruction) {
		buf := [1]byte{byte(inst)}
		p.file.Write(buf[:])
	}
}

// Receiver returns a channel hook that reads one instruction byte per RECV.
// An empty pipe, or a byte that is not a valid instruction, yields NOP0.
func (p *Pipe) Receiver() salis.Receiver {
	return func() salis.Instruction {
		var buf [1]byte
		n, err := p.file.Read(buf[:])
		if err != nil || n == 0 {
			return salis.NOP0
		}
		if !salis.IsInst(uint32(buf[0])) {
			return salis.NOP0
		}
		return salis.Instruction(buf[0])
	}
}
