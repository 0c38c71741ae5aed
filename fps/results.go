package fps

// EnrollStartResult is the outcome of EnrollStart.
type EnrollStartResult int

const (
	EnrollStartOK              EnrollStartResult = 0
	EnrollStartDatabaseFull    EnrollStartResult = 1
	EnrollStartInvalidPosition EnrollStartResult = 2
	EnrollStartAlreadyUsed     EnrollStartResult = 3
	// EnrollStartUnknown covers missing responses and unmapped NACK reasons.
	EnrollStartUnknown EnrollStartResult = -1
)

func (r EnrollStartResult) String() string {
	switch r {
	case EnrollStartOK:
		return "OK"
	case EnrollStartDatabaseFull:
		return "DatabaseFull"
	case EnrollStartInvalidPosition:
		return "InvalidPosition"
	case EnrollStartAlreadyUsed:
		return "AlreadyUsed"
	default:
		return "Unknown"
	}
}

// EnrollResult is the outcome of Enroll1, Enroll2 and Enroll3.
type EnrollResult int

const (
	EnrollOK        EnrollResult = 0
	EnrollFailed    EnrollResult = 1
	EnrollBadFinger EnrollResult = 2
	// EnrollDuplicate means the finger is already enrolled under another ID.
	EnrollDuplicate EnrollResult = 3
	EnrollUnknown   EnrollResult = -1
)

func (r EnrollResult) String() string {
	switch r {
	case EnrollOK:
		return "OK"
	case EnrollFailed:
		return "Failed"
	case EnrollBadFinger:
		return "BadFinger"
	case EnrollDuplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}

// VerifyResult is the outcome of Verify.
type VerifyResult int

const (
	VerifyOK              VerifyResult = 0
	VerifyInvalidPosition VerifyResult = 1
	VerifyNotUsed         VerifyResult = 2
	VerifyFailed          VerifyResult = 3
	VerifyUnknown         VerifyResult = -1
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyOK:
		return "OK"
	case VerifyInvalidPosition:
		return "InvalidPosition"
	case VerifyNotUsed:
		return "NotUsed"
	case VerifyFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// TemplateResult is the outcome of GetTemplate.
type TemplateResult int

const (
	TemplateOK              TemplateResult = 0
	TemplateInvalidPosition TemplateResult = 1
	TemplateNotUsed         TemplateResult = 2
	TemplateUnknown         TemplateResult = -1
)

func (r TemplateResult) String() string {
	switch r {
	case TemplateOK:
		return "OK"
	case TemplateInvalidPosition:
		return "InvalidPosition"
	case TemplateNotUsed:
		return "NotUsed"
	default:
		return "Unknown"
	}
}
