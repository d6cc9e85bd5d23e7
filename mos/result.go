package mos

import "strconv"

// Result is a MOS status code, shared with the firmware's FatFS layer.
// The zero value OK means success and is never returned on an error
// path; every other value implements error directly, so call sites can
// match firmware failures with errors.Is against the named codes.
type Result uint8

const (
	OK Result = iota
	ResultDiskErr
	ResultIntErr
	ResultNotReady
	ResultNoFile
	ResultNoPath
	ResultInvalidName
	ResultDenied
	ResultExist
	ResultInvalidObject
	ResultWriteProtected
	ResultInvalidDrive
	ResultNotEnabled
	ResultNoFilesystem
	ResultMkfsAborted
	ResultTimeout
	ResultLocked
	ResultNotEnoughCore
	ResultTooManyOpenFiles
	ResultInvalidParameter
)

var resultText = [...]string{
	OK:                     "OK",
	ResultDiskErr:          "Disk I/O error",
	ResultIntErr:           "Assertion failed",
	ResultNotReady:         "Drive not ready",
	ResultNoFile:           "Could not find the file",
	ResultNoPath:           "Could not find the path",
	ResultInvalidName:      "Invalid path name",
	ResultDenied:           "Access denied or directory full",
	ResultExist:            "File exists",
	ResultInvalidObject:    "Invalid file or directory object",
	ResultWriteProtected:   "Drive is write protected",
	ResultInvalidDrive:     "Invalid drive number",
	ResultNotEnabled:       "Volume has no work area",
	ResultNoFilesystem:     "No valid FAT volume",
	ResultMkfsAborted:      "Volume format aborted",
	ResultTimeout:          "Volume access timeout",
	ResultLocked:           "File sharing policy violation",
	ResultNotEnoughCore:    "Name buffer could not be allocated",
	ResultTooManyOpenFiles: "Too many open files",
	ResultInvalidParameter: "Invalid parameter",
}

func (r Result) String() string {
	if int(r) < len(resultText) {
		return resultText[r]
	}
	return "mos result " + strconv.Itoa(int(r))
}

func (r Result) Error() string { return r.String() }
