package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bankbranches/api/models"
)

// Columns expected in the seed file. The header row may
// list them in any order and may contain other columns.
var Columns = []string{
	"ifsc",
	"bank_id",
	"branch",
	"address",
	"city",
	"district",
	"state",
	"bank_name",
}

// Dataset is the parsed contents of a seed file.
type Dataset struct {
	Banks    []*models.Bank
	Branches []*models.Branch
}

// ReadCSV parses a bank branches csv file. Banks are collected from
// the bank_id and bank_name columns and are returned in the order
// they are first seen.
func ReadCSV(r io.Reader) (*Dataset, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err == io.EOF {
		return nil, errors.New("empty seed file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not read csv header")
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var (
		data  = &Dataset{}
		banks = make(map[int64]*models.Bank)
		ifscs = make(map[string]struct{})
		line  = 1
	)
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		field := func(name string) string {
			i := index[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		bankID, err := strconv.ParseInt(field("bank_id"), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid bank_id", line)
		}
		branch := &models.Branch{
			IFSC:     strings.ToUpper(field("ifsc")),
			BankID:   bankID,
			Branch:   field("branch"),
			Address:  models.NullString(field("address")),
			City:     models.NullString(field("city")),
			District: models.NullString(field("district")),
			State:    models.NullString(field("state")),
		}
		if err = validBranch(branch); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if _, ok := ifscs[branch.IFSC]; ok {
			return nil, fmt.Errorf("line %d: duplicate ifsc %q", line, branch.IFSC)
		}
		ifscs[branch.IFSC] = struct{}{}

		name := field("bank_name")
		bank, ok := banks[bankID]
		if !ok {
			if name == "" {
				return nil, fmt.Errorf("line %d: bank %d has no name", line, bankID)
			}
			if len(name) > models.BankNameLen {
				return nil, fmt.Errorf("line %d: bank name %q is too long", line, name)
			}
			bank = &models.Bank{ID: bankID, Name: name}
			banks[bankID] = bank
			data.Banks = append(data.Banks, bank)
		} else if name != "" && name != bank.Name {
			return nil, fmt.Errorf("line %d: bank %d has conflicting names %q and %q", line, bankID, bank.Name, name)
		}
		data.Branches = append(data.Branches, branch)
	}
	return data, nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("seed file is missing the %q column", col)
		}
	}
	return index, nil
}

func validBranch(b *models.Branch) error {
	switch {
	case b.IFSC == "":
		return errors.New("missing ifsc")
	case len(b.IFSC) > models.IFSCLen:
		return fmt.Errorf("ifsc %q is too long", b.IFSC)
	case b.Branch == "":
		return fmt.Errorf("branch %s has no name", b.IFSC)
	case len(b.Branch) > models.BranchNameLen:
		return fmt.Errorf("branch name of %s is too long", b.IFSC)
	case len(b.Address.String) > models.AddressLen:
		return fmt.Errorf("address of %s is too long", b.IFSC)
	}
	for _, s := range []string{b.City.String, b.District.String, b.State.String} {
		if len(s) > models.LocationLen {
			return fmt.Errorf("location of %s is too long", b.IFSC)
		}
	}
	return nil
}
