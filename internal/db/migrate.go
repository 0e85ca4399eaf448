package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet. Every statement is
// idempotent so startup can run this unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`create table if not exists roles (
		id bigint generated always as identity primary key,
		name text not null unique,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists role_path_permissions (
		id bigint generated always as identity primary key,
		role_id bigint not null,
		path text not null
	)`,
	`create table if not exists role_action_permissions (
		id bigint generated always as identity primary key,
		role_id bigint not null,
		module text not null,
		action text not null
	)`,
	`create table if not exists users (
		id bigint generated always as identity primary key,
		username text not null unique,
		password_hash text not null,
		role_id bigint,
		status int not null default 1,
		is_admin int not null default 0,
		phone text,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists dicts (
		id bigint generated always as identity primary key,
		label text not null,
		value text not null,
		parent_id bigint,
		sort int default 99,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists materials (
		id bigint generated always as identity primary key,
		name text not null,
		recipe_unit text not null,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists recipes (
		id bigint generated always as identity primary key,
		name text not null,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists recipe_items (
		id bigint generated always as identity primary key,
		recipe_id bigint not null,
		material_id bigint not null,
		amount double precision not null,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz,
		unique (recipe_id, material_id)
	)`,
	`create table if not exists area_pricing_rules (
		id bigint generated always as identity primary key,
		name text not null unique,
		area_type text not null,
		room_size text,
		time_type text not null,
		start_time_from text not null,
		base_duration_minutes int not null,
		base_price double precision not null,
		overtime_price_per_hour double precision not null,
		overtime_rounding text not null,
		overtime_grace_minutes int not null default 0,
		gift_tea_amount double precision not null default 0,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists area_resources (
		id bigint generated always as identity primary key,
		name text not null unique,
		area_type text not null,
		room_size text,
		capacity int,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists area_pricing (
		id bigint generated always as identity primary key,
		area_type text not null,
		room_size text,
		apply_time_start text not null,
		apply_time_end text not null,
		usage_duration_hours double precision not null,
		base_price double precision not null,
		overtime_hour_price double precision not null,
		overtime_round_type text not null,
		overtime_grace_minutes int default 0,
		gift_tea_amount double precision default 0,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists product_pricing (
		id bigint generated always as identity primary key,
		product_id bigint not null,
		price double precision not null,
		rule_application_type text,
		apply_time_start text,
		status int not null default 1,
		description text,
		created_by bigint,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_at timestamptz
	)`,
	`create table if not exists sales_orders (
		id bigint generated always as identity primary key,
		order_no text not null unique,
		order_status text not null,
		opened_at timestamptz,
		closed_at timestamptz,
		expected_amount double precision,
		actual_amount double precision,
		payment_difference_reason text,
		remark text,
		is_deleted int not null default 0,
		delete_reason text,
		deleted_by bigint,
		deleted_by_name text,
		deleted_at timestamptz,
		created_by bigint not null,
		created_by_name text not null,
		created_at timestamptz not null default now(),
		updated_by bigint,
		updated_by_name text,
		updated_at timestamptz
	)`,
	`create table if not exists sales_order_reserved (
		id bigint generated always as identity primary key,
		order_no text not null,
		username text,
		contact text,
		arrive_at text
	)`,
	`create table if not exists sales_order_areas (
		id bigint generated always as identity primary key,
		order_no text not null,
		area_id bigint not null,
		area_name text not null,
		area_type text not null,
		room_size text,
		price double precision not null default 0
	)`,
	`create table if not exists sales_order_products (
		id bigint generated always as identity primary key,
		order_no text not null,
		product_id bigint not null,
		product_name text not null,
		quantity int not null,
		unit_price double precision not null,
		total_price double precision not null
	)`,
	`create table if not exists sales_order_payments (
		id bigint generated always as identity primary key,
		order_no text not null,
		payment_method text not null,
		payment_method_name text not null,
		payment_amount double precision not null,
		paid_at timestamptz
	)`,
	`create index if not exists idx_sales_orders_order_no on sales_orders (order_no)`,
	`create index if not exists idx_sales_order_reserved_order_no on sales_order_reserved (order_no)`,
	`create index if not exists idx_sales_order_areas_order_no on sales_order_areas (order_no)`,
	`create index if not exists idx_sales_order_products_order_no on sales_order_products (order_no)`,
	`create index if not exists idx_sales_order_payments_order_no on sales_order_payments (order_no)`,
	`create index if not exists idx_dicts_parent_id on dicts (parent_id)`,
}
