package salis

// Sender pushes one instruction out of the simulation. Organisms reach it
// through the SEND opcode.
type Sender func(inst Instruction)

// Receiver pulls one instruction into the simulation. Organisms reach it
// through the RECV opcode. A receiver with nothing to deliver should return
// NOP0.
type Receiver func() Instruction

// Channel is the pair of capability slots tying a simulation to the outside
// world. Both slots are optional: with no sender SEND is a no-op, with no
// receiver RECV yields NOP0.
type Channel struct {
	sender   Sender
	receiver Receiver
}

// SetSender installs (or, with nil, removes) the outgoing hook.
func (c *Channel) SetSender(sender Sender) {
	c.sender = sender
}

// SetReceiver installs (or, with nil, removes) the incoming hook.
func (c *Channel) SetReceiver(receiver Receiver) {
	c.receiver = receiver
}

// send hands an instruction to the sender hook, if one is set.
func (c *Channel) send(inst Instruction) {
	if c.sender != nil {
		c.sender(inst)
	}
}

// receive pulls an instruction from the receiver hook. The bool result is
// false if the hook misbehaved and returned a value that is not a valid
// instruction; callers treat that as a fault.
func (c *Channel) receive() (Instruction, bool) {
	if c.receiver == nil {
		return NOP0, true
	}
	inst := c.receiver()
	if !IsInst(uint32(inst)) {
		return NOP0, false
	}
	return inst, true
}
