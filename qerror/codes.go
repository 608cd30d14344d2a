package qerror

type QErrCode uint32

const (
	//  00 - successful completion
	Success QErrCode = 0x0000

	// 02 - coordinating error
	ErrCoordConnection          QErrCode = 0x0200
	ErrCoordTargetAlreadyExists QErrCode = 0x0201
	ErrCoordBadVersion          QErrCode = 0x0202
	ErrCoordNotEmpty            QErrCode = 0x0203
	ErrCoordWatch               QErrCode = 0x0204
	ErrCoordClosed              QErrCode = 0x0205
	ErrCoordRequest             QErrCode = 0x0207
	ErrCoordNoNode              QErrCode = 0x0208

	// 05 - config related error
	ErrConfigValueNotSet QErrCode = 0x0500
	ErrInvalidConfig     QErrCode = 0x0501

	// 06 - consumer/producer error
	ErrConsumerStopped  QErrCode = 0x0600
	ErrConsumerStarted  QErrCode = 0x0601
	ErrInvalidOperation QErrCode = 0x0602
)
