package main

import (
	"fmt"

	"ringos/kernel/cpu"
	"ringos/kernel/gate"
	"ringos/kernel/gdt"
	"ringos/kernel/task"
)

// report describes the CPU-facing layout produced by the kernel: the
// descriptor table, the selectors, the fast system call MSR values and the
// saved register file.
type report struct {
	Descriptors []descriptorEntry `yaml:"descriptors" toml:"descriptors"`
	Selectors   selectorSet       `yaml:"selectors" toml:"selectors"`
	Syscall     syscallMSRs       `yaml:"syscall" toml:"syscall"`
	TaskState   taskStateInfo     `yaml:"task_state" toml:"task_state"`
	Context     []contextSlot     `yaml:"context" toml:"context"`
}

type descriptorEntry struct {
	Index      int    `yaml:"index" toml:"index"`
	Segment    string `yaml:"segment" toml:"segment"`
	Selector   string `yaml:"selector" toml:"selector"`
	Descriptor string `yaml:"descriptor" toml:"descriptor"`
	DPL        uint16 `yaml:"dpl" toml:"dpl"`
	System     bool   `yaml:"system" toml:"system"`
}

type selectorSet struct {
	KernelCode string `yaml:"kernel_code" toml:"kernel_code"`
	KernelData string `yaml:"kernel_data" toml:"kernel_data"`
	TaskState  string `yaml:"task_state" toml:"task_state"`
	UserData   string `yaml:"user_data" toml:"user_data"`
	UserCode   string `yaml:"user_code" toml:"user_code"`

	// Ring3 tagged selectors as loaded by the ring transition.
	UserDataRing3 string `yaml:"user_data_ring3" toml:"user_data_ring3"`
	UserCodeRing3 string `yaml:"user_code_ring3" toml:"user_code_ring3"`
}

type syscallMSRs struct {
	Star         string `yaml:"star" toml:"star"`
	SyscallMask  string `yaml:"sfmask" toml:"sfmask"`
	ReturnStatus int    `yaml:"return_status" toml:"return_status"`
}

type taskStateInfo struct {
	Size           int `yaml:"size" toml:"size"`
	DoubleFaultIST int `yaml:"double_fault_ist" toml:"double_fault_ist"`
	StackSize      int `yaml:"interrupt_stack_size" toml:"interrupt_stack_size"`
	IOMapBase      int `yaml:"io_map_base" toml:"io_map_base"`
}

type contextSlot struct {
	Register string `yaml:"register" toml:"register"`
	Offset   int    `yaml:"offset" toml:"offset"`
	PopIndex int    `yaml:"pop_index" toml:"pop_index"`
}

func hex16(v uint16) string { return fmt.Sprintf("0x%02x", v) }
func hex64(v uint64) string { return fmt.Sprintf("0x%016x", v) }

// buildReport lays out a descriptor table the same way the kernel does at
// boot, without loading it into the CPU.
func buildReport() (*report, error) {
	var st gdt.SegmentTable

	sel, kerr := st.Layout()
	if kerr != nil {
		return nil, fmt.Errorf("building descriptor table: %w", kerr)
	}

	star, kerr := gate.StarValue(sel)
	if kerr != nil {
		return nil, fmt.Errorf("computing STAR: %w", kerr)
	}

	rep := &report{
		Selectors: selectorSet{
			KernelCode:    hex16(uint16(sel.KernelCode)),
			KernelData:    hex16(uint16(sel.KernelData)),
			TaskState:     hex16(uint16(sel.TaskState)),
			UserData:      hex16(uint16(sel.UserData)),
			UserCode:      hex16(uint16(sel.UserCode)),
			UserDataRing3: hex16(uint16(sel.UserData.WithRPL(gdt.Ring3))),
			UserCodeRing3: hex16(uint16(sel.UserCode.WithRPL(gdt.Ring3))),
		},
		Syscall: syscallMSRs{
			Star:         hex64(star),
			SyscallMask:  hex64(cpu.FlagInterruptEnable),
			ReturnStatus: -gate.ENOSYS,
		},
		TaskState: taskStateInfo{
			Size:           int(st.TaskState().Size()),
			DoubleFaultIST: gdt.DoubleFaultIST + 1,
			StackSize:      gdt.InterruptStackSize,
			IOMapBase:      int(st.TaskState().IOMapBase()),
		},
	}

	selectorFor := map[gdt.Segment]gdt.Selector{
		gdt.KernelCode:       sel.KernelCode,
		gdt.KernelData:       sel.KernelData,
		gdt.TaskStateSegment: sel.TaskState,
		gdt.UserData:         sel.UserData,
		gdt.UserCode:         sel.UserCode,
	}
	for i, seg := range sel.Table().Segments() {
		s := selectorFor[seg]
		desc := sel.Table().Descriptor(s)
		rep.Descriptors = append(rep.Descriptors, descriptorEntry{
			Index:      i,
			Segment:    seg.String(),
			Selector:   hex16(uint16(s)),
			Descriptor: hex64(uint64(desc)),
			DPL:        uint16(desc.DPL()),
			System:     desc.IsSystem(),
		})
	}

	for i, r := range task.RestoreOrder {
		rep.Context = append(rep.Context, contextSlot{Register: r.String(), Offset: int(r) * 8, PopIndex: i})
	}
	for r := task.RegRIP; r <= task.RegSS; r++ {
		rep.Context = append(rep.Context, contextSlot{Register: r.String(), Offset: int(r) * 8, PopIndex: -1})
	}

	return rep, nil
}
