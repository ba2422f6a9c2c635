package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/salis-alife/salis/salis"
)

// Console commands:
//
//	c [n]            run n cycles (default 1)
//	p                print machine summary
//	proc <id>        dump one process record
//	mem <addr> <n>   dump n cells as glyphs
//	w <addr> <glyphs> write a genome, one glyph string, into the arena
//	new <addr> <n>   create a process on a free block
//	kill             reap the oldest process
//	save <path>      write a snapshot
//	q                quit
var consoleCommands = []string{"c", "p", "proc", "mem", "w", "new", "kill", "save", "q"}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func printSummary(sim *salis.Salis) {
	mem := sim.Memory()
	procs := sim.Procs()
	fmt.Printf("cycle=%d epoch=%d\n", sim.CycleCount(), sim.Epoch())
	fmt.Printf("memory: size=%d allocated=%d capacity=%d over=%v\n",
		mem.Size(), mem.Allocated(), mem.Capacity(), mem.IsOverCapacity())
	fmt.Printf("procs: count=%d capacity=%d first=%#x last=%#x\n",
		procs.Count(), procs.Capacity(), procs.First(), procs.Last())
	fmt.Printf("evolver: last ray=%#x last mutation=%d state=[%#x %#x %#x %#x]\n",
		sim.Evolver().LastChangedAddress(), sim.Evolver().LastChangedProcess(),
		sim.Evolver().State(0), sim.Evolver().State(1),
		sim.Evolver().State(2), sim.Evolver().State(3))
}

func printProc(sim *salis.Salis, id uint32) {
	if id >= sim.Procs().Capacity() {
		fmt.Println("no such slot")
		return
	}
	if sim.Procs().IsFree(id) {
		fmt.Printf("slot %d is free\n", id)
		return
	}
	p := sim.Procs().Get(id)
	fmt.Printf("mb1=%#x+%d mb2=%#x+%d ip=%#x sp=%#x\n", p.Mb1a, p.Mb1s, p.Mb2a, p.Mb2s, p.IP, p.SP)
	fmt.Printf("rax=%#x rbx=%#x rcx=%#x rdx=%#x stack=%v\n", p.Rax, p.Rbx, p.Rcx, p.Rdx, p.Stack)
}

func printMem(sim *salis.Salis, addr, count uint32) {
	mem := sim.Memory()
	var sb strings.Builder
	for i := uint32(0); i < count; i++ {
		if !mem.IsAddressValid(addr + i) {
			break
		}
		sb.WriteByte(mem.GetInst(addr + i).Glyph())
	}
	fmt.Println(sb.String())
}

func runCommand(sim *salis.Salis, args []string) (quit bool, err error) {
	switch args[0] {
	case "c":
		n := uint32(1)
		if len(args) > 1 {
			if n, err = parseUint32(args[1]); err != nil {
				return false, err
			}
		}
		for i := uint32(0); i < n; i++ {
			sim.Cycle()
		}
		printSummary(sim)
	case "p":
		printSummary(sim)
	case "proc":
		if len(args) < 2 {
			return false, errors.New("usage: proc <id>")
		}
		id, err := parseUint32(args[1])
		if err != nil {
			return false, err
		}
		printProc(sim, id)
	case "mem":
		if len(args) < 3 {
			return false, errors.New("usage: mem <addr> <len>")
		}
		addr, err := parseUint32(args[1])
		if err != nil {
			return false, err
		}
		count, err := parseUint32(args[2])
		if err != nil {
			return false, err
		}
		if !sim.Memory().IsAddressValid(addr) {
			return false, errors.New("address out of range")
		}
		printMem(sim, addr, count)
	case "w":
		if len(args) < 3 {
			return false, errors.New("usage: w <addr> <glyphs>")
		}
		addr, err := parseUint32(args[1])
		if err != nil {
			return false, err
		}
		genome := args[2]
		if !sim.Memory().IsAddressValid(addr) ||
			!sim.Memory().IsAddressValid(addr+uint32(len(genome))-1) {
			return false, errors.New("genome does not fit the arena")
		}
		for i := 0; i < len(genome); i++ {
			if _, ok := salis.GlyphToInst(genome[i]); !ok {
				return false, fmt.Errorf("not an instruction glyph: %q", genome[i])
			}
		}
		sim.Compile(addr, genome)
	case "new":
		if len(args) < 3 {
			return false, errors.New("usage: new <addr> <size>")
		}
		addr, err := parseUint32(args[1])
		if err != nil {
			return false, err
		}
		size, err := parseUint32(args[2])
		if err != nil {
			return false, err
		}
		if size == 0 || !sim.Memory().IsAddressValid(addr) ||
			!sim.Memory().IsAddressValid(addr+size-1) {
			return false, errors.New("block out of range")
		}
		for i := uint32(0); i < size; i++ {
			if sim.Memory().IsAllocated(addr + i) {
				return false, errors.New("block overlaps allocated memory")
			}
		}
		sim.Procs().Create(addr, size)
	case "kill":
		if sim.Procs().Count() == 0 {
			return false, errors.New("no living processes")
		}
		sim.Procs().Kill()
	case "save":
		if len(args) < 2 {
			return false, errors.New("usage: save <path>")
		}
		if err := sim.SaveFile(args[1]); err != nil {
			return false, err
		}
		fmt.Println("saved " + args[1])
	case "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
	return false, nil
}

// runConsole drives the simulation from an interactive prompt.
func runConsole(sim *salis.Salis) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) []string {
		var matches []string
		for _, cmd := range consoleCommands {
			if strings.HasPrefix(cmd, strings.ToLower(line)) {
				matches = append(matches, cmd)
			}
		}
		return matches
	})

	for {
		command, err := line.Prompt("salis> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			fmt.Println("Error: " + err.Error())
			return
		}
		line.AppendHistory(command)
		args := strings.Fields(command)
		if len(args) == 0 {
			continue
		}
		quit, err := runCommand(sim, args)
		if err != nil {
			fmt.Println("Error: " + err.Error())
		}
		if quit {
			return
		}
	}
}
