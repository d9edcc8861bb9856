package services

import (
	"context"
	"database/sql"
	"time"

	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

type ProductionHouseInput struct {
	Name            string `json:"ph_name" validate:"required,max=60"`
	StreetAddr      string `json:"street_addr" validate:"required,max=100"`
	City            string `json:"city" validate:"required,max=30"`
	State           string `json:"state" validate:"required,max=30"`
	PostalCode      string `json:"postal_code" validate:"required,max=10"`
	Country         string `json:"country" validate:"required,max=30"`
	YearEstablished int    `json:"year_established" validate:"gt=1800"`
}

type ProducerInput struct {
	FirstName  string `json:"first_name" validate:"required,max=30"`
	LastName   string `json:"last_name" validate:"required,max=30"`
	Email      string `json:"email_addr" validate:"required,email,max=100"`
	Phone      string `json:"phone" validate:"required,max=20"`
	StreetAddr string `json:"street_addr" validate:"required,max=100"`
	City       string `json:"city" validate:"required,max=30"`
	State      string `json:"state" validate:"required,max=30"`
	PostalCode string `json:"postal_code" validate:"required,max=10"`
	Country    string `json:"country" validate:"required,max=30"`
}

type AssociationInput struct {
	ProducerID   string `json:"producer_id" validate:"required,max=12"`
	PhID         string `json:"ph_id" validate:"required,max=12"`
	AllianceDate string `json:"alliance_date" validate:"required,isodate"`
	EndDate      string `json:"end_date" validate:"omitempty,isodate"`
}

type ContractInput struct {
	WsID        string  `json:"ws_id" validate:"required,max=12"`
	PerEpCharge float64 `json:"per_ep_charge" validate:"gt=0"`
	StartDate   string  `json:"contract_st_date" validate:"required,isodate"`
	EndDate     string  `json:"contract_end_date" validate:"required,isodate"`
}

func (s *AdminService) ListProductionHouses(ctx context.Context) ([]models.ProductionHouse, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT ph.ph_id, ph.ph_name, ph.street_addr, ph.city, ph.state, ph.postal_code, ph.country,
			ph.year_established, COUNT(ws.ws_id) AS series_count
		FROM production_houses ph LEFT JOIN web_series ws ON ws.ph_id = ph.ph_id
		GROUP BY ph.ph_id
		ORDER BY ph.ph_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ProductionHouse{}
	for rows.Next() {
		var ph models.ProductionHouse
		if err := rows.Scan(&ph.PhID, &ph.Name, &ph.StreetAddr, &ph.City, &ph.State, &ph.PostalCode,
			&ph.Country, &ph.YearEstablished, &ph.SeriesCount); err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

func validateProductionHouse(in ProductionHouseInput) error {
	if err := security.Validate(in); err != nil {
		return err
	}
	if in.YearEstablished > time.Now().Year() {
		return security.NewValidationError("year_established cannot be in the future")
	}
	return nil
}

func (s *AdminService) CreateProductionHouse(ctx context.Context, in ProductionHouseInput) (string, error) {
	if err := validateProductionHouse(in); err != nil {
		return "", err
	}

	phID := security.GenerateID("PH")
	_, err := s.store.Exec(ctx, `
		INSERT INTO production_houses (ph_id, ph_name, street_addr, city, state, postal_code, country, year_established)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		phID, in.Name, in.StreetAddr, in.City, in.State, in.PostalCode, in.Country, in.YearEstablished)
	if err != nil {
		return "", mapConstraintError(err, "production house")
	}

	s.written("production_house", phID)
	return phID, nil
}

func (s *AdminService) UpdateProductionHouse(ctx context.Context, phID string, in ProductionHouseInput) error {
	if err := validateProductionHouse(in); err != nil {
		return err
	}

	n, err := s.store.Exec(ctx, `
		UPDATE production_houses
		SET ph_name = $1, street_addr = $2, city = $3, state = $4, postal_code = $5, country = $6, year_established = $7
		WHERE ph_id = $8`,
		in.Name, in.StreetAddr, in.City, in.State, in.PostalCode, in.Country, in.YearEstablished, phID)
	if err != nil {
		return mapConstraintError(err, "production house")
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("production_house", phID)
	return nil
}

// DeleteProductionHouse refuses while series still reference the house;
// its producer associations go with it.
func (s *AdminService) DeleteProductionHouse(ctx context.Context, phID string) error {
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var series int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM web_series WHERE ph_id = $1", phID).Scan(&series); err != nil {
			return err
		}
		if series > 0 {
			return conflict("production house still has series")
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM producer_production_houses WHERE ph_id = $1", phID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM production_houses WHERE ph_id = $1", phID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.written("production_house", phID)
	return nil
}

func (s *AdminService) ListProducers(ctx context.Context) ([]models.Producer, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT producer_id, first_name, last_name, email_addr, phone, street_addr, city, state, postal_code, country
		FROM producers ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Producer{}
	for rows.Next() {
		var p models.Producer
		if err := rows.Scan(&p.ProducerID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
			&p.StreetAddr, &p.City, &p.State, &p.PostalCode, &p.Country); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *AdminService) CreateProducer(ctx context.Context, in ProducerInput) (string, error) {
	if err := security.Validate(in); err != nil {
		return "", err
	}

	producerID := security.GenerateID("PR")
	_, err := s.store.Exec(ctx, `
		INSERT INTO producers (producer_id, first_name, last_name, email_addr, phone, street_addr, city, state, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		producerID, in.FirstName, in.LastName, in.Email, in.Phone, in.StreetAddr, in.City, in.State, in.PostalCode, in.Country)
	if err != nil {
		return "", mapConstraintError(err, "producer")
	}

	s.written("producer", producerID)
	return producerID, nil
}

func (s *AdminService) UpdateProducer(ctx context.Context, producerID string, in ProducerInput) error {
	if err := security.Validate(in); err != nil {
		return err
	}

	n, err := s.store.Exec(ctx, `
		UPDATE producers
		SET first_name = $1, last_name = $2, email_addr = $3, phone = $4, street_addr = $5,
			city = $6, state = $7, postal_code = $8, country = $9
		WHERE producer_id = $10`,
		in.FirstName, in.LastName, in.Email, in.Phone, in.StreetAddr, in.City, in.State, in.PostalCode, in.Country, producerID)
	if err != nil {
		return mapConstraintError(err, "producer")
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("producer", producerID)
	return nil
}

// DeleteProducer removes a producer and its associations.
func (s *AdminService) DeleteProducer(ctx context.Context, producerID string) error {
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM producer_production_houses WHERE producer_id = $1", producerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM producers WHERE producer_id = $1", producerID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.written("producer", producerID)
	return nil
}

func (s *AdminService) ListAssociations(ctx context.Context) ([]models.Association, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT pph.producer_id, p.first_name || ' ' || p.last_name, pph.ph_id, ph.ph_name, pph.alliance_date, pph.end_date
		FROM producer_production_houses pph
		JOIN producers p ON p.producer_id = pph.producer_id
		JOIN production_houses ph ON ph.ph_id = pph.ph_id
		ORDER BY pph.alliance_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Association{}
	for rows.Next() {
		var a models.Association
		var end sql.NullTime
		if err := rows.Scan(&a.ProducerID, &a.ProducerName, &a.PhID, &a.PhName, &a.AllianceDate, &end); err != nil {
			return nil, err
		}
		if end.Valid {
			a.EndDate = &end.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AdminService) CreateAssociation(ctx context.Context, in AssociationInput) error {
	if err := security.Validate(in); err != nil {
		return err
	}
	alliance, err := security.ParseDate(in.AllianceDate)
	if err != nil {
		return security.NewValidationError("alliance_date must be a date in YYYY-MM-DD format")
	}
	var end *time.Time
	if in.EndDate != "" {
		e, err := security.ParseDate(in.EndDate)
		if err != nil {
			return security.NewValidationError("end_date must be a date in YYYY-MM-DD format")
		}
		if !security.ValidateDateRange(alliance, e) {
			return security.NewValidationError("End date must be after alliance date")
		}
		end = &e
	}

	_, err = s.store.Exec(ctx,
		"INSERT INTO producer_production_houses (producer_id, ph_id, alliance_date, end_date) VALUES ($1, $2, $3, $4)",
		in.ProducerID, in.PhID, alliance, end)
	if err != nil {
		return mapConstraintError(err, "association")
	}

	s.written("association", in.ProducerID+"/"+in.PhID)
	return nil
}

func (s *AdminService) DeleteAssociation(ctx context.Context, producerID, phID string) error {
	n, err := s.store.Exec(ctx,
		"DELETE FROM producer_production_houses WHERE producer_id = $1 AND ph_id = $2", producerID, phID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("association", producerID+"/"+phID)
	return nil
}

func (s *AdminService) ListContracts(ctx context.Context) ([]models.Contract, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT c.contract_id, c.per_ep_charge::float8, c.contract_st_date, c.contract_end_date, c.ws_id, ws.ws_name
		FROM contracts c JOIN web_series ws ON ws.ws_id = c.ws_id
		ORDER BY c.contract_st_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Contract{}
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(&c.ContractID, &c.PerEpCharge, &c.StartDate, &c.EndDate, &c.WsID, &c.WsName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// validateContract returns the parsed start and end dates.
func validateContract(in ContractInput) (time.Time, time.Time, error) {
	if err := security.Validate(in); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := security.ParseDate(in.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, security.NewValidationError("contract_st_date must be a date in YYYY-MM-DD format")
	}
	end, err := security.ParseDate(in.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, security.NewValidationError("contract_end_date must be a date in YYYY-MM-DD format")
	}
	if !security.ValidateDateRange(start, end) {
		return time.Time{}, time.Time{}, security.NewValidationError("Contract end date must be after start date")
	}
	return start, end, nil
}

func (s *AdminService) CreateContract(ctx context.Context, in ContractInput) (string, error) {
	start, end, err := validateContract(in)
	if err != nil {
		return "", err
	}

	contractID := security.GenerateID("CON")
	_, err = s.store.Exec(ctx, `
		INSERT INTO contracts (contract_id, per_ep_charge, contract_st_date, contract_end_date, ws_id)
		VALUES ($1, $2, $3, $4, $5)`,
		contractID, in.PerEpCharge, start, end, in.WsID)
	if err != nil {
		return "", mapConstraintError(err, "contract")
	}

	s.written("contract", contractID)
	return contractID, nil
}

func (s *AdminService) UpdateContract(ctx context.Context, contractID string, in ContractInput) error {
	start, end, err := validateContract(in)
	if err != nil {
		return err
	}

	n, err := s.store.Exec(ctx, `
		UPDATE contracts
		SET ws_id = $1, per_ep_charge = $2, contract_st_date = $3, contract_end_date = $4
		WHERE contract_id = $5`,
		in.WsID, in.PerEpCharge, start, end, contractID)
	if err != nil {
		return mapConstraintError(err, "contract")
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("contract", contractID)
	return nil
}

func (s *AdminService) DeleteContract(ctx context.Context, contractID string) error {
	n, err := s.store.Exec(ctx, "DELETE FROM contracts WHERE contract_id = $1", contractID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("contract", contractID)
	return nil
}
