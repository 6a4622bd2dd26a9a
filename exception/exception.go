package exception

import (
	"errors"
	"fmt"
	"runtime"

	log "github.com/Lafeng/nobus/glog"
)

// injectable
var DEBUG bool

type Exception struct {
	msg     string
	code    int
	warning bool
	origin  *Exception
}

func (e *Exception) Error() string {
	return e.msg
}

func (e *Exception) Code() int {
	return e.code
}

func (e *Exception) Warning() bool {
	return e.warning
}

// Is reports whether target is the sentinel this exception was applied from.
func (e *Exception) Is(target error) bool {
	t, y := target.(*Exception)
	if !y {
		return false
	}
	return e.root() == t.root()
}

func (e *Exception) root() *Exception {
	if e.origin != nil {
		return e.origin
	}
	return e
}

func (e *Exception) Apply(appendage interface{}) *Exception {
	newE := new(Exception)
	newE.code = e.code
	newE.warning = e.warning
	newE.origin = e.root()
	newE.msg = fmt.Sprintf("%s %v", e.msg, appendage)
	return newE
}

func NewW(msg string) *Exception {
	return &Exception{msg: msg, warning: true}
}

func New(code int, msg string) *Exception {
	return &Exception{msg: msg, code: code}
}

// CodeOf returns the code carried by err, or 1 for foreign errors.
func CodeOf(err error) int {
	var e *Exception
	if errors.As(err, &e) && e.code != 0 {
		return e.code
	}
	return 1
}

// Detail describes err for debugging. Warnings are plain user errors
// and get none.
func Detail(err error) string {
	var e *Exception
	if errors.As(err, &e) && e.Warning() {
		return ""
	}
	if err != nil && (bool(log.V(log.LV_ERR_DETAIL)) || DEBUG) {
		return fmt.Sprintf("(Error:%T::%s)", err, err)
	}
	return ""
}

// if ( [re] != nil OR [err] !=nil ) then return true
// and set [err] to [re] if [re] != nil
func Catch(re interface{}, err *error) bool {
	var ex error
	if re != nil {
		switch rex := re.(type) {
		case error:
			ex = rex
		default:
			ex = fmt.Errorf("%v", re)
		}
		// print recovered error
		if DEBUG || bool(log.V(log.LV_ERR_STACK)) {
			buf := make([]byte, 1600)
			n := runtime.Stack(buf, false)
			errStack := ex.Error() + "\n"
			errStack += string(buf[:n])
			log.Errorln(errStack)
		}
	}
	if ex != nil {
		if err != nil {
			*err = ex
		}
		return true
	}
	return err != nil && *err != nil
}
