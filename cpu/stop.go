package cpu

// StopReason tells why a processor is not running.
type StopReason int

const (
	STOP_INITIAL = StopReason(iota)
	STOP_CLEARED
	STOP_DEBUG
	STOP_DEVELOPMENT
	STOP_BREAKPOINT
	STOP_HALT_JUMP
	STOP_ICS_BASE_REGISTER_INVALID
	STOP_ICS_OVERFLOW
	STOP_RCS_BASE_REGISTER_INVALID
	STOP_RCS_OVERFLOW
	STOP_INITIATE_AUTO_RECOVERY
	STOP_L0_BASE_REGISTER_INVALID
	STOP_PANEL_HALT
	STOP_HANDLER_HARDWARE_FAILURE
	STOP_HANDLER_OFFSET_OUT_OF_RANGE
	STOP_HANDLER_INVALID_BANK_TYPE
	STOP_HANDLER_INVALID_LEVEL_BDI
)

var _stop_reason = [...]string{
	"initial",
	"cleared",
	"debug",
	"development",
	"breakpoint",
	"halt jump executed",
	"ics base register invalid",
	"ics overflow",
	"rcs base register invalid",
	"rcs overflow",
	"initiate auto recovery",
	"level 0 base register invalid",
	"panel halt",
	"interrupt handler hardware failure",
	"interrupt handler offset out of range",
	"interrupt handler invalid bank type",
	"interrupt handler invalid level/bdi",
}

func (sr StopReason) String() string {
	if sr >= 0 && int(sr) < len(_stop_reason) {
		return f(_stop_reason[sr])
	}
	return f("stop reason %d", int(sr))
}

// STOP_DETAIL_INTERRUPT is or'd with the interrupt class in the stop detail
// of a development mode stop, and in the HALT operand of the default
// interrupt handlers.
const STOP_DETAIL_INTERRUPT = 01000
