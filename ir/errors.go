package ir

import "fmt"

type wellFormedError struct {
	msg string
}

func (e *wellFormedError) Error() string { return e.msg }

func errUnterminatedBlock(label string) error {
	return &wellFormedError{msg: fmt.Sprintf("block %q has no terminator", label)}
}

func errDuplicateRegister(id uint32) error {
	return &wellFormedError{msg: fmt.Sprintf("register %%%d assigned more than once", id)}
}

func errNonMonotonicRegister(got, want uint32) error {
	return &wellFormedError{msg: fmt.Sprintf("register %%%d assigned out of order, expected %%%d", got, want)}
}
