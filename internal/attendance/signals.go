package attendance

import (
	"context"

	"go.uber.org/zap"

	"smartattendance/internal/geo"
)

// Signals are the three match flags stored on a record.
type Signals struct {
	QR       bool
	Location bool
	Face     bool
}

// SignalPolicy decides the match flags for a self-service mark whose
// session and student were already validated.
type SignalPolicy interface {
	Evaluate(ctx context.Context, usn string, req MarkRequest) Signals
}

// TrustAll stamps every flag true once the session and student are valid,
// whatever location or face data the request carried.
type TrustAll struct{}

func (TrustAll) Evaluate(context.Context, string, MarkRequest) Signals {
	return Signals{QR: true, Location: true, Face: true}
}

// FaceVerifier checks a submitted face image against the student's enrolled face.
type FaceVerifier interface {
	Matches(ctx context.Context, usn, image string) (bool, error)
}

// Verified computes each flag from the request payload. A valid session
// token counts as the QR signal.
type Verified struct {
	Classroom geo.Classroom
	Faces     FaceVerifier
	Logger    *zap.Logger
}

func (v Verified) Evaluate(ctx context.Context, usn string, req MarkRequest) Signals {
	sig := Signals{QR: true}
	if req.Location != nil {
		sig.Location = v.Classroom.Contains(*req.Location).Inside
	}
	if req.FaceImage != "" && v.Faces != nil {
		ok, err := v.Faces.Matches(ctx, usn, req.FaceImage)
		if err != nil {
			if v.Logger != nil {
				v.Logger.Warn("face verification failed", zap.String("usn", usn), zap.Error(err))
			}
		} else {
			sig.Face = ok
		}
	}
	return sig
}
