package hal

import (
	"io"

	"github.com/Amjad50/OS/kernel/driver/serial"
	"github.com/Amjad50/OS/kernel/driver/tty"
	"github.com/Amjad50/OS/kernel/driver/video/console"
	"github.com/Amjad50/OS/kernel/hal/multiboot"
	"github.com/Amjad50/OS/kernel/kfmt"
)

const (
	defaultFbPhysAddr = uintptr(0xb8000)
	defaultFbWidth    = 80
	defaultFbHeight   = 25
)

var (
	vgaConsole = &console.Vga{}
	serialPort = &serial.Port{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}

	bootOutput = &splitWriter{}
)

// InitTerminal sets up a basic terminal over the VGA text console reported
// by the bootloader and mirrors all output to the COM1 serial port, then
// points kfmt at the combined sink. This gives the kernel a place to emit
// output until proper device management exists.
func InitTerminal() {
	width, height, fbPhysAddr := uint16(defaultFbWidth), uint16(defaultFbHeight), defaultFbPhysAddr
	if fbInfo := multiboot.GetFramebufferInfo(); fbInfo != nil && fbInfo.Type == multiboot.FramebufferTypeEGA {
		width, height, fbPhysAddr = uint16(fbInfo.Width), uint16(fbInfo.Height), uintptr(fbInfo.PhysAddr)
	}

	vgaConsole.Init(width, height, fbPhysAddr)
	ActiveTerminal.AttachTo(vgaConsole)
	serialPort.Init(serial.COM1)

	bootOutput.sinks[0] = ActiveTerminal
	bootOutput.sinks[1] = serialPort
	kfmt.SetOutputSink(bootOutput)
}

// splitWriter fans each write out to its non-nil sinks. It is allocated
// statically; interface assignment does not require the Go allocator.
type splitWriter struct {
	sinks [2]io.Writer
}

// Write implements io.Writer.
func (w *splitWriter) Write(data []byte) (int, error) {
	for _, sink := range w.sinks {
		if sink != nil {
			sink.Write(data)
		}
	}
	return len(data), nil
}
