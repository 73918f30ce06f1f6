package main

// Chip8Stack is the bounded return-address stack. SP is the number of
// live entries; Slots[SP-1] is the top.
type Chip8Stack struct {
	Slots [CHIP8_STACK_DEPTH]uint16
	SP    int
}

func (s *Chip8Stack) Push(addr uint16) error {
	if s.SP >= len(s.Slots) {
		return ErrStackOverflow
	}
	s.Slots[s.SP] = addr
	s.SP++
	return nil
}

func (s *Chip8Stack) Pop() (uint16, error) {
	if s.SP <= 0 {
		return 0, ErrStackUnderflow
	}
	s.SP--
	return s.Slots[s.SP], nil
}

func (s *Chip8Stack) Depth() int {
	return s.SP
}

func (s *Chip8Stack) Reset() {
	s.Slots = [CHIP8_STACK_DEPTH]uint16{}
	s.SP = 0
}
