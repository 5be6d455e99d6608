package chain

import "github.com/stretchr/testify/mock"

func NewRandomnessMock() *RandomnessMock {
	return &RandomnessMock{}
}

type RandomnessMock struct {
	mock.Mock
}

func (r *RandomnessMock) Random(subject []byte) []byte {
	args := r.MethodCalled("Random", subject)
	return args.Get(0).([]byte)
}
