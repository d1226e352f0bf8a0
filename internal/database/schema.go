package database

// Schema lists every table the service owns. CHECK constraints mirror
// the enums in the validation package.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		display_name TEXT,
		role TEXT DEFAULT 'user',
		active INTEGER DEFAULT 1,
		failed_login_attempts INTEGER DEFAULT 0,
		locked_until TIMESTAMP,
		last_login TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		module TEXT NOT NULL,
		action TEXT NOT NULL,
		record_id TEXT NOT NULL,
		username TEXT DEFAULT '',
		summary TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS parts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		trackable INTEGER DEFAULT 0,
		salable INTEGER DEFAULT 1,
		default_location TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS supplier_parts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		part TEXT NOT NULL,
		supplier TEXT NOT NULL,
		sku TEXT DEFAULT '',
		pack_size REAL NOT NULL DEFAULT 1 CHECK(pack_size > 0),
		note TEXT DEFAULT '',
		UNIQUE(supplier, sku),
		FOREIGN KEY (part) REFERENCES parts(id)
	)`,
	`CREATE TABLE IF NOT EXISTS supplier_price_breaks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		supplier_part INTEGER NOT NULL,
		quantity REAL NOT NULL CHECK(quantity > 0),
		price REAL NOT NULL CHECK(price >= 0),
		currency TEXT DEFAULT 'USD',
		FOREIGN KEY (supplier_part) REFERENCES supplier_parts(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS stock_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		part TEXT NOT NULL,
		location TEXT DEFAULT '',
		quantity REAL NOT NULL DEFAULT 0 CHECK(quantity >= 0),
		allocated REAL NOT NULL DEFAULT 0 CHECK(allocated >= 0),
		batch TEXT DEFAULT '',
		serial TEXT DEFAULT '',
		status INTEGER DEFAULT 10,
		supplier_part INTEGER,
		purchase_order TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (part) REFERENCES parts(id)
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		reference TEXT UNIQUE NOT NULL,
		supplier TEXT NOT NULL,
		status TEXT DEFAULT 'pending' CHECK(status IN ('pending','placed','complete','cancelled')),
		target_date TEXT DEFAULT '',
		issue_date TEXT,
		complete_date TEXT,
		received_by TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		created_by TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS po_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		part TEXT NOT NULL,
		supplier_part INTEGER,
		quantity REAL NOT NULL CHECK(quantity > 0),
		received REAL NOT NULL DEFAULT 0 CHECK(received >= 0),
		purchase_price REAL DEFAULT 0 CHECK(purchase_price >= 0),
		destination TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		FOREIGN KEY (order_id) REFERENCES purchase_orders(id) ON DELETE CASCADE,
		FOREIGN KEY (supplier_part) REFERENCES supplier_parts(id)
	)`,
	`CREATE TABLE IF NOT EXISTS po_extra_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity REAL NOT NULL DEFAULT 1 CHECK(quantity > 0),
		price REAL DEFAULT 0,
		price_currency TEXT DEFAULT 'USD',
		notes TEXT DEFAULT '',
		FOREIGN KEY (order_id) REFERENCES purchase_orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS sales_orders (
		id TEXT PRIMARY KEY,
		reference TEXT UNIQUE NOT NULL,
		customer TEXT NOT NULL,
		status TEXT DEFAULT 'pending' CHECK(status IN ('pending','shipped','cancelled')),
		target_date TEXT DEFAULT '',
		shipment_date TEXT,
		shipped_by TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		created_by TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS so_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		part TEXT NOT NULL,
		quantity REAL NOT NULL CHECK(quantity > 0),
		shipped REAL NOT NULL DEFAULT 0 CHECK(shipped >= 0),
		sale_price REAL DEFAULT 0 CHECK(sale_price >= 0),
		notes TEXT DEFAULT '',
		FOREIGN KEY (order_id) REFERENCES sales_orders(id) ON DELETE CASCADE,
		FOREIGN KEY (part) REFERENCES parts(id)
	)`,
	`CREATE TABLE IF NOT EXISTS so_extra_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity REAL NOT NULL DEFAULT 1 CHECK(quantity > 0),
		price REAL DEFAULT 0,
		price_currency TEXT DEFAULT 'USD',
		notes TEXT DEFAULT '',
		FOREIGN KEY (order_id) REFERENCES sales_orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS shipments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		reference TEXT NOT NULL,
		shipment_date TEXT,
		tracking_number TEXT DEFAULT '',
		invoice_number TEXT DEFAULT '',
		link TEXT DEFAULT '',
		checked_by TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(order_id, reference),
		FOREIGN KEY (order_id) REFERENCES sales_orders(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS allocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line_id INTEGER NOT NULL,
		shipment_id TEXT NOT NULL,
		stock_item INTEGER NOT NULL,
		quantity REAL NOT NULL CHECK(quantity > 0),
		FOREIGN KEY (line_id) REFERENCES so_lines(id) ON DELETE CASCADE,
		FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE,
		FOREIGN KEY (stock_item) REFERENCES stock_items(id)
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_name TEXT NOT NULL,
		size_bytes INTEGER DEFAULT 0,
		comment TEXT DEFAULT '',
		uploaded_by TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}
