package glog

const (
	// generic error message
	LV_ERR_DETAIL = 1
	// error stack or DEBUG
	LV_ERR_STACK = 2

	LV_PROGRESS = 1 // gen, exp
	LV_BITS     = 1 // gen

	LV_FACTOR   = 2 // pohlig
	LV_DRAW     = 2 // paramgen
	LV_FALLBACK = 2 // pohlig

	LV_RETRY   = 3 // pollard, paramgen
	LV_CLOSING = 3 // paramgen

	LV_TRACE = 4 // pollard iterations
)
