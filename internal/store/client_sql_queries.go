package store

const (
	insertItem = `
		INSERT INTO items (
			id,
			name,
			description,
			price,
			image,
			image_dropped,
			available_quantity,
			is_available,
			sync_status,
			problematic,
			local_timestamp,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	updateItem = `
		UPDATE items SET
			name               = ?,
			description        = ?,
			price              = ?,
			image              = ?,
			image_dropped      = ?,
			available_quantity = ?,
			is_available       = ?,
			sync_status        = ?,
			problematic        = ?,
			updated_at         = ?
		WHERE id = ?;`

	itemColumns = `
			id,
			name,
			description,
			price,
			image,
			image_dropped,
			available_quantity,
			is_available,
			sync_status,
			problematic,
			local_timestamp,
			updated_at`

	getItem = `
		SELECT` + itemColumns + `
		FROM items
		WHERE id = ?;`

	listItems = `
		SELECT` + itemColumns + `
		FROM items
		ORDER BY local_timestamp, id;`

	listVisibleItems = `
		SELECT` + itemColumns + `
		FROM items
		WHERE sync_status != 'pending_deletion'
		ORDER BY local_timestamp, id;`

	listUnqueuedPending = `
		SELECT` + itemColumns + `
		FROM items
		WHERE sync_status IN ('pending', 'pending_deletion')
		  AND id NOT IN (SELECT entity_id FROM sync_queue)
		ORDER BY local_timestamp, id;`

	markItemStatus = `
		UPDATE items SET
			sync_status = ?,
			updated_at  = ?
		WHERE id = ?;`

	markItemForDeletion = `
		UPDATE items SET
			sync_status  = 'pending_deletion',
			is_available = 0,
			updated_at   = ?
		WHERE id = ?;`

	markItemSynced = `
		UPDATE items SET
			sync_status = 'synced',
			problematic = 0,
			updated_at  = ?
		WHERE id = ? AND sync_status = 'pending';`

	setItemProblematic = `
		UPDATE items SET
			problematic = ?
		WHERE id = ?;`

	deleteItemByID = `
		DELETE FROM items
		WHERE id = ?;`

	insertQueueEntry = `
		INSERT INTO sync_queue (
			operation_type,
			entity_id,
			payload_snapshot,
			enqueued_at
		) VALUES (?, ?, ?, ?);`

	deleteQueueByEntity = `
		DELETE FROM sync_queue
		WHERE entity_id = ?;`

	deleteQueueByID = `
		DELETE FROM sync_queue
		WHERE id = ?;`

	listQueueEntries = `
		SELECT
			id,
			operation_type,
			entity_id,
			payload_snapshot,
			enqueued_at
		FROM sync_queue
		ORDER BY id;`

	getQueueByEntity = `
		SELECT
			id,
			operation_type,
			entity_id,
			payload_snapshot,
			enqueued_at
		FROM sync_queue
		WHERE entity_id = ?;`
)
