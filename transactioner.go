// MIT License
//
// Copyright (c) 2020 codingfinest
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package gogm

import (
	"errors"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
)

//ErrTransactionInProgress is returned by BeginTransaction while another transaction is open.
var ErrTransactionInProgress = errors.New("transaction already in progress")

type transactioner struct {
	driver         neo4j.Driver
	cypherExecuter *cypherExecuter
	database       string
	transaction    *Transaction
}

func newTransactioner(driver neo4j.Driver, cypherExecuter *cypherExecuter, database string) *transactioner {
	return &transactioner{driver: driver, cypherExecuter: cypherExecuter, database: database}
}

//beginTransaction opens a write transaction that every statement of the session runs in
//until it is closed. Closing it leaves the session's mapping context untouched.
func (t *transactioner) beginTransaction() (*Transaction, error) {
	if t.driver == nil {
		return nil, illegalArgument("session has no driver to begin a transaction with")
	}
	if t.transaction != nil {
		return nil, ErrTransactionInProgress
	}
	transaction, err := newTransaction(t.driver, t.endTransaction, neo4j.AccessModeWrite, t.database)
	if err != nil {
		return nil, err
	}
	t.transaction = transaction
	t.cypherExecuter.setTransaction(transaction)
	return transaction, nil
}

func (t *transactioner) endTransaction() error {
	t.transaction = nil
	t.cypherExecuter.setTransaction(nil)
	return nil
}
