package corp

import (
	"fmt"

	"trunkline/moves"
)

// CertTransfer moves a certificate between portfolios. Built only through
// MoveCert so From always reflects the holder at execution time.
type CertTransfer struct {
	Cert     *Certificate
	From, To *Portfolio
}

func (m *CertTransfer) Do() {
	m.From.removeCert(m.Cert)
	m.To.addCert(m.Cert)
}

func (m *CertTransfer) Undo() {
	m.To.removeCert(m.Cert)
	m.From.addCert(m.Cert)
}

func (m *CertTransfer) String() string {
	return fmt.Sprintf("certificate %s: %s -> %s", m.Cert.ID, m.From, m.To)
}

// MoveCert records and applies a certificate transfer.
func MoveCert(stack *moves.Stack, cert *Certificate, to *Portfolio) {
	stack.Add(&CertTransfer{Cert: cert, From: cert.Holder, To: to})
}

// TrainTransfer moves a train between portfolios.
type TrainTransfer struct {
	Train    *Train
	From, To *Portfolio
}

func (m *TrainTransfer) Do() {
	m.From.removeTrain(m.Train)
	m.To.addTrain(m.Train)
}

func (m *TrainTransfer) Undo() {
	m.To.removeTrain(m.Train)
	m.From.addTrain(m.Train)
}

func (m *TrainTransfer) String() string {
	return fmt.Sprintf("train %s: %s -> %s", m.Train.ID, m.From, m.To)
}

func MoveTrain(stack *moves.Stack, train *Train, to *Portfolio) {
	stack.Add(&TrainTransfer{Train: train, From: train.Holder, To: to})
}

// PrivateTransfer moves a private company between portfolios.
type PrivateTransfer struct {
	Private  *PrivateCompany
	From, To *Portfolio
}

func (m *PrivateTransfer) Do() {
	m.From.removePrivate(m.Private)
	m.To.addPrivate(m.Private)
}

func (m *PrivateTransfer) Undo() {
	m.To.removePrivate(m.Private)
	m.From.addPrivate(m.Private)
}

func (m *PrivateTransfer) String() string {
	return fmt.Sprintf("private %s: %s -> %s", m.Private.ID, m.From, m.To)
}

func MovePrivate(stack *moves.Stack, pc *PrivateCompany, to *Portfolio) {
	stack.Add(&PrivateTransfer{Private: pc, From: pc.Holder, To: to})
}
