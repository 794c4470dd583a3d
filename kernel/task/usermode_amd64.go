package task

// enterUsermode points the stack at frame, clears every general purpose
// register and executes IRETQ.
func enterUsermode(frame *Frame)
