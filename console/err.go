package console

import (
	"errors"

	"github.com/ezrec/em2200/translate"
)

var f = translate.From

var (
	// Console errors
	ErrConsoleFull  = errors.New(f("console input full"))
	ErrReplyMissing = errors.New(f("console reply missing"))
	ErrInputClosed  = errors.New(f("console input closed"))
)
