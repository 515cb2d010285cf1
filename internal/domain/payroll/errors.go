package payroll

import "errors"

var (
	ErrPayrollAccessDenied = errors.New("payroll details are restricted to payroll officers")
)
